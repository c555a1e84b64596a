// Package alert mails a warning when the controller enters a watched mode.
package alert

import (
	"fmt"
	"log"

	"gitlab.com/lologarithm/climatesim/climate"
)

// Sender delivers one alert.
type Sender interface {
	Send(subj, msg string) error
}

// Alerter is a view that sends one alert each time the mode changes into
// one of the watched modes.
type Alerter struct {
	sender Sender
	watch  map[climate.Mode]bool

	last    climate.Mode
	started bool
}

// New watches modes, defaulting to cold (freeze warning) when none are given.
func New(s Sender, modes ...climate.Mode) *Alerter {
	if len(modes) == 0 {
		modes = []climate.Mode{climate.ModeCold}
	}
	a := &Alerter{sender: s, watch: map[climate.Mode]bool{}}
	for _, m := range modes {
		a.watch[m] = true
	}
	return a
}

func (a *Alerter) Display(s climate.Snapshot) error {
	// The controller starts in normal, so the first tick is compared to that.
	prev := climate.ModeNormal
	if a.started {
		prev = a.last
	}
	a.last = s.Mode
	a.started = true

	if s.Mode == prev || !a.watch[s.Mode] {
		return nil
	}
	log.Printf("Mode changed %s -> %s at %dC, sending alert.", prev, s.Mode, s.ATS)
	return a.sender.Send(subject(s), body(prev, s))
}

func subject(s climate.Snapshot) string {
	return fmt.Sprintf("Climate entered %s mode at %d°C", s.Mode, s.ATS)
}

func body(prev climate.Mode, s climate.Snapshot) string {
	return fmt.Sprintf("Tick %d of run %s (%s)\nMode: %s -> %s\nATS: %d°C\nWater Valve: %d%%\nFan intensity: %d%%\n",
		s.Tick, s.Run, s.Time.Format("Jan 2 15:04:05"), prev, s.Mode, s.ATS, s.WaterValve, s.Fan)
}
