package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser   gltfParser
	skeleton gltfSkeletonExtractor
}

// gltfMeshExtractor defines the interface for extracting skinning data from the mesh nodes of a parsed glTF document.
//
// Every primitive of a mesh contributes its vertices to one ImportedMesh, in primitive order.
// A mesh instanced by a skinned node lists one bone per skin joint, in skin order, with the
// joint's inverse bind matrix as its offset and the vertex weights read from the JOINTS_n and
// WEIGHTS_n attribute sets.
type gltfMeshExtractor interface {
	// ExtractMesh extracts the mesh instanced by a node.
	//
	// Parameters:
	//   - nodeIndex: the index of a node that references a mesh
	//
	// Returns:
	//   - common.ImportedMesh: the extracted mesh
	//   - error: error wrapping skeleton.ErrImport if the mesh or skin is malformed
	ExtractMesh(nodeIndex int) (common.ImportedMesh, error)

	// ExtractAllMeshes extracts the mesh of every node that references one, in node order.
	//
	// Returns:
	//   - []common.ImportedMesh: all extracted meshes
	//   - error: error if any extraction fails
	ExtractAllMeshes() ([]common.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - skel: the skeleton extractor providing joint names
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser, skel gltfSkeletonExtractor) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, skeleton: skel}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(nodeIndex int) (common.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return common.ImportedMesh{}, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) || doc.Nodes[nodeIndex] == nil || doc.Nodes[nodeIndex].Mesh == nil {
		return common.ImportedMesh{}, errors.Wrapf(skeleton.ErrImport, "node %d has no mesh", nodeIndex)
	}
	node := doc.Nodes[nodeIndex]
	meshIndex := *node.Mesh
	if int(meshIndex) >= len(doc.Meshes) || doc.Meshes[meshIndex] == nil {
		return common.ImportedMesh{}, errors.Wrapf(skeleton.ErrImport, "node %q: mesh %d out of range", e.skeleton.NodeName(nodeIndex), meshIndex)
	}
	mesh := doc.Meshes[meshIndex]

	out := common.ImportedMesh{Name: mesh.Name}
	if out.Name == "" {
		out.Name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	var skin *gltf.Skin
	if node.Skin != nil {
		if int(*node.Skin) >= len(doc.Skins) || doc.Skins[*node.Skin] == nil {
			return out, errors.Wrapf(skeleton.ErrImport, "mesh %q: skin %d out of range", out.Name, *node.Skin)
		}
		skin = doc.Skins[*node.Skin]
		bones, err := e.skinBones(skin)
		if err != nil {
			return out, errors.Wrapf(err, "mesh %q", out.Name)
		}
		out.Bones = bones
	}

	for p, prim := range mesh.Primitives {
		if prim == nil {
			continue
		}
		position, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return out, errors.Wrapf(skeleton.ErrImport, "mesh %q primitive %d has no POSITION", out.Name, p)
		}
		count, err := e.parser.AccessorCount(position)
		if err != nil {
			return out, errors.Wrapf(err, "mesh %q primitive %d", out.Name, p)
		}

		if skin != nil {
			if err := e.readInfluences(&out, prim, uint32(out.VertexCount), count); err != nil {
				return out, errors.Wrapf(err, "mesh %q primitive %d", out.Name, p)
			}
		}
		out.VertexCount += count
	}

	return out, nil
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]common.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}

	var meshes []common.ImportedMesh
	for i, n := range doc.Nodes {
		if n == nil || n.Mesh == nil {
			continue
		}
		mesh, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// skinBones returns one bone per skin joint with its inverse bind matrix, identity when the skin has none.
func (e *gltfMeshExtractorImpl) skinBones(skin *gltf.Skin) ([]common.ImportedBone, error) {
	var inverseBind []mgl32.Mat4
	if skin.InverseBindMatrices != nil {
		m, err := e.parser.ReadMat4s(*skin.InverseBindMatrices)
		if err != nil {
			return nil, errors.Wrap(err, "inverse bind matrices")
		}
		if len(m) < len(skin.Joints) {
			return nil, errors.Wrapf(skeleton.ErrImport, "%d inverse bind matrices for %d joints", len(m), len(skin.Joints))
		}
		inverseBind = m
	}

	bones := make([]common.ImportedBone, len(skin.Joints))
	for j, node := range skin.Joints {
		name := e.skeleton.NodeName(int(node))
		if name == "" {
			return nil, errors.Wrapf(skeleton.ErrImport, "joint %d: node %d out of range", j, node)
		}
		bones[j] = common.ImportedBone{Name: name, Offset: mgl32.Ident4()}
		if inverseBind != nil {
			bones[j].Offset = inverseBind[j]
		}
	}
	return bones, nil
}

// readInfluences appends every non-zero (joint, weight) pair of a primitive to the mesh's bones.
// base is the mesh vertex index of the primitive's first vertex.
func (e *gltfMeshExtractorImpl) readInfluences(mesh *common.ImportedMesh, prim *gltf.Primitive, base uint32, count int) error {
	for set := 0; ; set++ {
		jointsAttr, hasJoints := prim.Attributes[fmt.Sprintf("JOINTS_%d", set)]
		weightsAttr, hasWeights := prim.Attributes[fmt.Sprintf("WEIGHTS_%d", set)]
		if !hasJoints || !hasWeights {
			return nil
		}

		joints, err := e.parser.ReadJoints(jointsAttr)
		if err != nil {
			return errors.Wrapf(err, "JOINTS_%d", set)
		}
		weights, err := e.parser.ReadWeights(weightsAttr)
		if err != nil {
			return errors.Wrapf(err, "WEIGHTS_%d", set)
		}
		if len(joints) != count || len(weights) != count {
			return errors.Wrapf(skeleton.ErrImport, "set %d has %d joints and %d weights for %d vertices", set, len(joints), len(weights), count)
		}

		for v := range count {
			for k := range 4 {
				w := weights[v][k]
				if w <= 0 {
					continue
				}
				j := int(joints[v][k])
				if j >= len(mesh.Bones) {
					return errors.Wrapf(skeleton.ErrImport, "vertex %d references joint %d of %d", v, j, len(mesh.Bones))
				}
				mesh.Bones[j].Weights = append(mesh.Bones[j].Weights, common.VertexWeight{VertexID: base + uint32(v), Weight: w})
			}
		}
	}
}
