package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-skin/common"
)

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	// This extracts the scene tree, meshes with their bone weights, and animations.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *common.ImportedModel: the imported model data
	//   - error: error if loading fails
	Load(path string) (*common.ImportedModel, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *common.ImportedModel: the imported model data
	//   - error: error if loading fails
	LoadReader(r io.Reader) (*common.ImportedModel, error)
}
