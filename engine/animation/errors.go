package animation

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/pkg/errors"
)

var (
	// ErrImport is the cause of errors raised while translating an imported clip.
	// It is the same value as skeleton.ErrImport so callers can match either.
	ErrImport = skeleton.ErrImport

	// ErrDegenerateKey marks adjacent keys that share a timestamp. It is logged, not returned.
	ErrDegenerateKey = errors.New("degenerate keyframe")
)
