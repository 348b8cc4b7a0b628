package bogus

import (
	"context"
	"fmt"

	"github.com/nao1215/abogus/internal/jsvm"
)

// EngineFactory creates an engine with the signing script already loaded.
type EngineFactory func() (jsvm.Engine, error)

// Pool hands out loaded engines for exclusive use. An engine is never
// shared by two goroutines at the same time.
type Pool struct {
	engines chan jsvm.Engine
	factory EngineFactory
	size    int
}

// NewPool creates size engines up front using factory.
func NewPool(size int, factory EngineFactory) (*Pool, error) {
	if size < 1 {
		return nil, ErrInvalidPoolSize
	}

	p := &Pool{
		engines: make(chan jsvm.Engine, size),
		factory: factory,
		size:    size,
	}
	for i := 0; i < size; i++ {
		e, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create engine %d/%d: %w", i+1, size, err)
		}
		p.engines <- e
	}
	return p, nil
}

// Size returns the number of engines managed by the pool.
func (p *Pool) Size() int {
	return p.size
}

// Acquire waits for a free engine or for ctx to end.
func (p *Pool) Acquire(ctx context.Context) (jsvm.Engine, error) {
	select {
	case e := <-p.engines:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns e to the pool.
func (p *Pool) Release(e jsvm.Engine) {
	p.engines <- e
}

// Replace drops e and puts a freshly loaded engine in its place. It is used
// after an interrupted call, when the VM may hold partial state. If a new
// engine cannot be created, e is returned to the pool instead so the pool
// never shrinks.
func (p *Pool) Replace(e jsvm.Engine) error {
	fresh, err := p.factory()
	if err != nil {
		p.engines <- e
		return err
	}
	p.engines <- fresh
	return nil
}
