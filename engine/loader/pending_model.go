package loader

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/engine/model"
)

// PendingModel is the handle of an asynchronous load started by Loader.LoadAsync.
// The model, its clips and its bone weight table only become visible once the whole import
// has finished, so a Ready handle never exposes a partially built model.
type PendingModel struct {
	name string
	done chan struct{}
	once sync.Once

	model model.Model
	err   error
}

// newPendingModel creates an unresolved handle for name.
func newPendingModel(name string) *PendingModel {
	return &PendingModel{
		name: name,
		done: make(chan struct{}),
	}
}

// newResolvedModel creates a handle that is already resolved.
func newResolvedModel(name string, m model.Model, err error) *PendingModel {
	p := newPendingModel(name)
	p.resolve(m, err)
	return p
}

// Name returns the path or cache key the load was started for.
func (p *PendingModel) Name() string {
	return p.name
}

// Done returns a channel that is closed once the load has finished, successfully or not.
func (p *PendingModel) Done() <-chan struct{} {
	return p.done
}

// Ready reports whether the load has finished without blocking.
//
// Returns:
//   - bool: true once Wait would return immediately
func (p *PendingModel) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the load finishes or ctx is done.
//
// Parameters:
//   - ctx: bounds how long to wait
//
// Returns:
//   - model.Model: the loaded model, nil on failure
//   - error: the load error, or ctx.Err() if ctx finished first
func (p *PendingModel) Wait(ctx context.Context) (model.Model, error) {
	select {
	case <-p.done:
		return p.model, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve publishes the result. Only the first call has any effect.
func (p *PendingModel) resolve(m model.Model, err error) {
	p.once.Do(func() {
		p.model = m
		p.err = err
		close(p.done)
	})
}
