package loop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lologarithm/climatesim/climate"
	"gitlab.com/lologarithm/climatesim/sensor"
	"gitlab.com/lologarithm/climatesim/view"
)

type collect struct {
	got []climate.Snapshot
}

func (c *collect) Display(s climate.Snapshot) error {
	c.got = append(c.got, s)
	return nil
}

func TestReferenceRun(t *testing.T) {
	var out bytes.Buffer
	c := &collect{}
	l := New(Options{Ticks: 10}, sensor.NewRamp(-10, 5), view.NewText(&out), c)
	require.NoError(t, l.Run(context.Background()))

	type row struct {
		ats, valve, fan int
		mode            climate.Mode
	}
	want := []row{
		{-10, 100, 100, climate.ModeCold},
		{-5, 100, 100, climate.ModeCold},
		{0, 100, 100, climate.ModeCold},
		{5, 100, 100, climate.ModeCold},
		{10, 50, 65, climate.ModeNormal},
		{15, 50, 65, climate.ModeNormal},
		{20, 50, 65, climate.ModeNormal},
		{25, 25, 40, climate.ModeHot},
		{30, 25, 40, climate.ModeHot},
		{35, 25, 40, climate.ModeHot},
	}
	require.Len(t, c.got, len(want))
	for i, w := range want {
		s := c.got[i]
		assert.Equal(t, w, row{s.ATS, s.WaterValve, s.Fan, s.Mode}, "tick %d", i)
		assert.Equal(t, i, s.Tick)
		assert.Equal(t, l.RunID(), s.Run)
	}

	lines := strings.Split(out.String(), "\n\n")
	assert.Equal(t, "ATS: -10°C\nWater Valve: 100%\nFan intensity: 100%", lines[0])
	assert.Equal(t, "ATS: 35°C\nWater Valve: 25%\nFan intensity: 40%", lines[9])
}

type flaky struct {
	vals []int
	n    int
}

func (f *flaky) Next(context.Context) (int, error) {
	defer func() { f.n++ }()
	if f.n%2 == 1 {
		return 0, errors.New("checksum")
	}
	return f.vals[f.n/2], nil
}

func TestSourceErrorKeepsATS(t *testing.T) {
	c := &collect{}
	l := New(Options{Ticks: 4}, &flaky{vals: []int{25, 10}}, c)
	require.NoError(t, l.Run(context.Background()))

	require.Len(t, c.got, 4)
	assert.Equal(t, []int{25, 25, 10, 10}, []int{c.got[0].ATS, c.got[1].ATS, c.got[2].ATS, c.got[3].ATS})
	// hot entered at 25, kept through the failed reading, left below 15
	assert.Equal(t, climate.ModeHot, c.got[1].Mode)
	assert.Equal(t, climate.ModeNormal, c.got[2].Mode)
}

func TestViewErrorsDoNotStopLoop(t *testing.T) {
	c := &collect{}
	bad := view.Func(func(climate.Snapshot) error { return errors.New("sink down") })
	l := New(Options{Ticks: 3}, sensor.NewRamp(0, 1), bad, c)
	require.NoError(t, l.Run(context.Background()))
	assert.Len(t, c.got, 3)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &collect{}
	stop := view.Func(func(s climate.Snapshot) error {
		if s.Tick == 4 {
			cancel()
		}
		return nil
	})
	l := New(Options{Interval: time.Millisecond}, sensor.NewRamp(0, 1), c, stop)
	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, c.got, 5, "the tick that cancelled still completes")
}

func TestOverrideReachesModel(t *testing.T) {
	c := &collect{}
	src := sensor.NewOverride(sensor.NewRamp(10, 0))
	l := New(Options{}, src, c)

	l.Step(context.Background())
	src.Set(30)
	s := l.Step(context.Background())
	assert.Equal(t, 30, s.ATS)
	assert.Equal(t, climate.ModeHot, s.Mode)
	assert.Equal(t, 10, l.Step(context.Background()).ATS)
}
