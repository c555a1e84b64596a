// Package loop drives the model one tick at a time: read the source,
// run the controller transition, then show the result on every view.
package loop

import (
	"context"
	"log"
	"time"

	"github.com/rs/xid"

	"gitlab.com/lologarithm/climatesim/climate"
	"gitlab.com/lologarithm/climatesim/sensor"
	"gitlab.com/lologarithm/climatesim/view"
)

// Options controls how many ticks run and how fast.
type Options struct {
	Ticks    int           // 0 runs until the context is done
	Interval time.Duration // sleep between ticks
}

// Loop owns the model and the controller. Nothing else touches them;
// views only get snapshots.
type Loop struct {
	opts   Options
	model  *climate.Model
	ctrl   *climate.Controller
	source sensor.Source
	views  view.Multi

	run  string
	tick int
	now  func() time.Time
}

func New(opts Options, src sensor.Source, views ...view.View) *Loop {
	m := climate.NewModel()
	return &Loop{
		opts:   opts,
		model:  m,
		ctrl:   climate.NewController(m),
		source: src,
		views:  views,
		run:    xid.New().String(),
		now:    time.Now,
	}
}

// RunID identifies this loop in every snapshot it produces.
func (l *Loop) RunID() string {
	return l.run
}

// Step runs a single tick and returns what the views were shown.
// A source failure keeps the previous temperature for this tick.
func (l *Loop) Step(ctx context.Context) climate.Snapshot {
	ats, err := l.source.Next(ctx)
	if err != nil {
		log.Printf("[Error] Failed to read ATS, keeping %dC: %s", l.model.ATS(), err)
	} else {
		l.model.ReadATS(ats)
	}
	l.ctrl.Transition()

	s := climate.Take(l.model, l.ctrl)
	s.Run = l.run
	s.Tick = l.tick
	s.Time = l.now()
	l.tick++

	if err := l.views.Display(s); err != nil {
		log.Printf("[Error] Tick %d views: %s", s.Tick, err)
	}
	return s
}

// Run ticks until the configured count is reached or ctx is done.
// Cancellation is only observed between ticks.
func (l *Loop) Run(ctx context.Context) error {
	for i := 0; l.opts.Ticks == 0 || i < l.opts.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Step(ctx)

		if l.opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.opts.Interval):
			}
		}
	}
	return nil
}
