package skeleton

import "github.com/pkg/errors"

var (
	// ErrImport is the cause of errors raised while translating imported skinning data.
	ErrImport = errors.New("import error")

	// ErrCapacity is returned when a bone index would reach the configured bone capacity.
	ErrCapacity = errors.New("bone capacity exceeded")
)
