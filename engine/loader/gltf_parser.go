package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	doc *gltf.Document
}

// gltfParser defines the interface for decoding a glTF/GLB document and reading its accessors
// as engine math types. Every read is bounds checked, so a malformed document produces an
// error wrapping skeleton.ErrImport instead of a panic.
type gltfParser interface {
	// Parse decodes the glTF or GLB file at path. External buffers are resolved relative
	// to the file's directory.
	//
	// Parameters:
	//   - path: the file path to decode
	//
	// Returns:
	//   - error: error if the file cannot be opened or decoded
	Parse(path string) error

	// ParseReader decodes a glTF JSON or GLB stream. Only embedded buffers can be resolved.
	//
	// Parameters:
	//   - r: the reader providing the document
	//
	// Returns:
	//   - error: error if the stream cannot be decoded
	ParseReader(r io.Reader) error

	// Document returns the decoded document, or nil before a successful parse.
	//
	// Returns:
	//   - *gltf.Document: the document
	Document() *gltf.Document

	// AccessorCount returns the element count of an accessor.
	AccessorCount(accessor uint32) (int, error)

	// ReadScalars reads a SCALAR float accessor.
	ReadScalars(accessor uint32) ([]float32, error)

	// ReadVec3s reads a VEC3 float accessor.
	ReadVec3s(accessor uint32) ([]mgl32.Vec3, error)

	// ReadQuats reads a VEC4 rotation accessor stored as (x, y, z, w). Normalized integer
	// component types are converted to float.
	ReadQuats(accessor uint32) ([]mgl32.Quat, error)

	// ReadMat4s reads a MAT4 float accessor in column-major order.
	ReadMat4s(accessor uint32) ([]mgl32.Mat4, error)

	// ReadJoints reads a JOINTS_n accessor.
	ReadJoints(accessor uint32) ([][4]uint16, error)

	// ReadWeights reads a WEIGHTS_n accessor, denormalizing integer component types.
	ReadWeights(accessor uint32) ([][4]float32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new parser with no document loaded.
//
// Returns:
//   - gltfParser: the parser
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

// newGLTFParserFromDocument wraps an already decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfParser: the parser
func newGLTFParserFromDocument(doc *gltf.Document) gltfParser {
	return &gltfParserImpl{doc: doc}
}

func (p *gltfParserImpl) Parse(path string) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	p.doc = doc
	return nil
}

func (p *gltfParserImpl) ParseReader(r io.Reader) error {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return errors.Wrap(err, "decoding stream")
	}
	p.doc = doc
	return nil
}

func (p *gltfParserImpl) Document() *gltf.Document {
	return p.doc
}

func (p *gltfParserImpl) AccessorCount(accessor uint32) (int, error) {
	acr, err := p.accessor(accessor)
	if err != nil {
		return 0, err
	}
	return int(acr.Count), nil
}

func (p *gltfParserImpl) ReadScalars(accessor uint32) ([]float32, error) {
	data, acr, err := p.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([]float32)
	if !ok {
		return nil, p.typeError(accessor, acr, "SCALAR float")
	}
	return values, nil
}

func (p *gltfParserImpl) ReadVec3s(accessor uint32) ([]mgl32.Vec3, error) {
	data, acr, err := p.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([][3]float32)
	if !ok {
		return nil, p.typeError(accessor, acr, "VEC3 float")
	}
	out := make([]mgl32.Vec3, len(values))
	for i, v := range values {
		out[i] = mgl32.Vec3(v)
	}
	return out, nil
}

func (p *gltfParserImpl) ReadQuats(accessor uint32) ([]mgl32.Quat, error) {
	data, acr, err := p.read(accessor)
	if err != nil {
		return nil, err
	}

	var xyzw [][4]float32
	switch values := data.(type) {
	case [][4]float32:
		xyzw = values
	case [][4]int8:
		xyzw = make([][4]float32, len(values))
		for i, v := range values {
			for c := range 4 {
				xyzw[i][c] = gltf.DenormalizeByte(v[c])
			}
		}
	case [][4]uint8:
		xyzw = make([][4]float32, len(values))
		for i, v := range values {
			for c := range 4 {
				xyzw[i][c] = gltf.DenormalizeUbyte(v[c])
			}
		}
	case [][4]int16:
		xyzw = make([][4]float32, len(values))
		for i, v := range values {
			for c := range 4 {
				xyzw[i][c] = gltf.DenormalizeShort(v[c])
			}
		}
	case [][4]uint16:
		xyzw = make([][4]float32, len(values))
		for i, v := range values {
			for c := range 4 {
				xyzw[i][c] = gltf.DenormalizeUshort(v[c])
			}
		}
	default:
		return nil, p.typeError(accessor, acr, "VEC4 rotation")
	}

	out := make([]mgl32.Quat, len(xyzw))
	for i, v := range xyzw {
		out[i] = gltfQuat(v)
	}
	return out, nil
}

func (p *gltfParserImpl) ReadMat4s(accessor uint32) ([]mgl32.Mat4, error) {
	data, acr, err := p.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([][4][4]float32)
	if !ok {
		return nil, p.typeError(accessor, acr, "MAT4 float")
	}
	out := make([]mgl32.Mat4, len(values))
	for i, m := range values {
		for c := range 4 {
			for r := range 4 {
				out[i][c*4+r] = m[c][r]
			}
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadJoints(accessor uint32) ([][4]uint16, error) {
	acr, err := p.accessor(accessor)
	if err != nil {
		return nil, err
	}
	joints, err := modeler.ReadJoints(p.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(skeleton.ErrImport, "accessor %d: %v", accessor, err)
	}
	return joints, nil
}

func (p *gltfParserImpl) ReadWeights(accessor uint32) ([][4]float32, error) {
	acr, err := p.accessor(accessor)
	if err != nil {
		return nil, err
	}
	weights, err := modeler.ReadWeights(p.doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(skeleton.ErrImport, "accessor %d: %v", accessor, err)
	}
	return weights, nil
}

// accessor returns the accessor at index i, or an import error when no document is loaded
// or the index is out of range.
func (p *gltfParserImpl) accessor(i uint32) (*gltf.Accessor, error) {
	if p.doc == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}
	if int(i) >= len(p.doc.Accessors) || p.doc.Accessors[i] == nil {
		return nil, errors.Wrapf(skeleton.ErrImport, "accessor %d out of range (%d accessors)", i, len(p.doc.Accessors))
	}
	return p.doc.Accessors[i], nil
}

// read decodes accessor i into the slice type modeler picks for its component and element type.
func (p *gltfParserImpl) read(i uint32) (interface{}, *gltf.Accessor, error) {
	acr, err := p.accessor(i)
	if err != nil {
		return nil, nil, err
	}
	data, err := modeler.ReadAccessor(p.doc, acr, nil)
	if err != nil {
		return nil, acr, errors.Wrapf(skeleton.ErrImport, "accessor %d: %v", i, err)
	}
	if data == nil {
		return nil, acr, errors.Wrapf(skeleton.ErrImport, "accessor %d has no buffer view", i)
	}
	return data, acr, nil
}

func (p *gltfParserImpl) typeError(i uint32, acr *gltf.Accessor, want string) error {
	return errors.Wrapf(skeleton.ErrImport, "accessor %d is %s %s, want %s", i, acr.Type, acr.ComponentType, want)
}

// gltfQuat converts a glTF (x, y, z, w) rotation to an mgl32 quaternion.
func gltfQuat(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}
