// Package sensor supplies the temperature readings fed into the model each tick.
package sensor

import (
	"context"
	"sync"
)

// Source yields the next temperature reading in whole degrees C.
type Source interface {
	Next(ctx context.Context) (int, error)
}

// Ramp is a synthetic source: Start, Start+Step, Start+2*Step, ...
type Ramp struct {
	Start int
	Step  int

	n int
}

// NewRamp returns the ramp used by the reference run when start and step
// come from the defaults (-10, +5).
func NewRamp(start, step int) *Ramp {
	return &Ramp{Start: start, Step: step}
}

func (r *Ramp) Next(_ context.Context) (int, error) {
	v := r.Start + r.n*r.Step
	r.n++
	return v, nil
}

// Override lets a caller replace the next reading of an inner source.
// Set may be called from any goroutine. A pending value is used once.
type Override struct {
	inner Source

	mu      sync.Mutex
	pending *int
}

func NewOverride(inner Source) *Override {
	return &Override{inner: inner}
}

// Set queues v for the next tick. A later Set replaces an unread one.
func (o *Override) Set(v int) {
	o.mu.Lock()
	o.pending = &v
	o.mu.Unlock()
}

// Next always advances the inner source so a ramp keeps its schedule,
// then hands out the pending value if there is one.
func (o *Override) Next(ctx context.Context) (int, error) {
	v, err := o.inner.Next(ctx)

	o.mu.Lock()
	p := o.pending
	o.pending = nil
	o.mu.Unlock()

	if p != nil {
		return *p, nil
	}
	return v, err
}
