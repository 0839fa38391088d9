package serving

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shelfwatchd/internal/engine"
	"shelfwatchd/internal/vision"
)

// slot is one worker execution slot. Each slot owns its model session and
// input tensor buffer exclusively, so concurrent jobs never share mutable
// state.
type slot struct {
	runner engine.Runner
	input  []float32
}

// pool is a fixed-size set of slots. A free slot sits in the channel; a
// request takes one within the admission window or is rejected. There is no
// queue behind the window.
type pool struct {
	slots         chan *slot
	size          int
	admissionWait time.Duration

	mu     sync.Mutex
	closed bool
}

func newPool(size int, admissionWait time.Duration, inputSize int, factory engine.Factory) (*pool, error) {
	p := &pool{
		slots:         make(chan *slot, size),
		size:          size,
		admissionWait: admissionWait,
	}
	for i := 0; i < size; i++ {
		runner, err := factory()
		if err != nil {
			p.close()
			return nil, fmt.Errorf("initialize session %d: %w", i, err)
		}
		p.slots <- &slot{
			runner: runner,
			input:  make([]float32, vision.TensorLen(inputSize)),
		}
	}
	return p, nil
}

// acquire reserves a slot, waiting at most the admission window.
func (p *pool) acquire(ctx context.Context) (*slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := time.NewTimer(p.admissionWait)
	defer timer.Stop()
	select {
	case s := <-p.slots:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, capacityError{}
	}
}

// release returns a slot to the pool. After close, returning slots are torn
// down instead.
func (p *pool) release(s *slot) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		_ = s.runner.Close()
		return
	}
	p.slots <- s
}

// inFlight reports how many slots are currently executing jobs.
func (p *pool) inFlight() int {
	return p.size - len(p.slots)
}

// close tears down all idle slots; busy slots are torn down as their jobs
// exit and release them.
func (p *pool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	for {
		select {
		case s := <-p.slots:
			_ = s.runner.Close()
		default:
			return
		}
	}
}
