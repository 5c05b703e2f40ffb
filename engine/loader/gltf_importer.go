package loader

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce a complete ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts the scene tree, meshes and animations.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *common.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	Import(path string) (*common.ImportedModel, error)

	// ImportReader loads a glTF JSON or GLB stream and extracts all data.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//
	// Returns:
	//   - *common.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportReader(r io.Reader) (*common.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*common.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader) (*common.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, "")
}

// importFromParser performs a full import from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackPath: optional file path used for model naming
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string) (*common.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "no document after parsing")
	}

	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	meshExtractor := newGLTFMeshExtractor(parser, skeletonExtractor)
	animationExtractor := newGLTFAnimationExtractor(parser, skeletonExtractor)

	root, err := skeletonExtractor.ExtractSceneTree()
	if err != nil {
		return nil, errors.Wrap(err, "scene extraction failed")
	}

	meshes, err := meshExtractor.ExtractAllMeshes()
	if err != nil {
		return nil, errors.Wrap(err, "mesh extraction failed")
	}

	animations, err := animationExtractor.ExtractAllAnimations()
	if err != nil {
		return nil, errors.Wrap(err, "animation extraction failed")
	}

	return &common.ImportedModel{
		Name:       gltfExtractModelName(doc, fallbackPath),
		Root:       root,
		Meshes:     meshes,
		Animations: animations,
	}, nil
}

// gltfExtractModelName derives a model name from the file name, falling back to the scene name.
func gltfExtractModelName(doc *gltf.Document, fallbackPath string) string {
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) && doc.Scenes[*doc.Scene] != nil {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	return "unnamed_model"
}
