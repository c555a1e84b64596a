// Package view renders the state of each tick.
package view

import (
	"errors"
	"fmt"
	"io"

	"gitlab.com/lologarithm/climatesim/climate"
)

// View consumes the snapshot taken after each transition.
type View interface {
	Display(s climate.Snapshot) error
}

// Func adapts a plain function into a View.
type Func func(s climate.Snapshot) error

func (f Func) Display(s climate.Snapshot) error {
	return f(s)
}

// Multi shows a snapshot on every view in order.
// A failing view does not stop the ones after it.
type Multi []View

func (m Multi) Display(s climate.Snapshot) error {
	var errs []error
	for _, v := range m {
		if err := v.Display(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Text prints each tick the way the console always has.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Display(s climate.Snapshot) error {
	_, err := fmt.Fprintf(t.w, "ATS: %d°C\nWater Valve: %d%%\nFan intensity: %d%%\n\n", s.ATS, s.WaterValve, s.Fan)
	return err
}
