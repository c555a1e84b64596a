package climate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state struct {
	mode  Mode
	valve int
	fan   int
}

func step(c *Controller, m *Model, t int) state {
	m.ReadATS(t)
	c.Transition()
	return state{c.Mode(), m.WaterValveFlow(), m.FanIntensity()}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from  Mode
		temp  int
		mode  Mode
		valve int
	}{
		{ModeNormal, 21, ModeHot, 25},
		{ModeNormal, -1, ModeCold, 100},
		{ModeNormal, 20, ModeNormal, 50},
		{ModeNormal, 0, ModeNormal, 50},
		{ModeHot, 14, ModeNormal, 50},
		{ModeHot, 15, ModeHot, 25},
		{ModeHot, 100, ModeHot, 25},
		{ModeCold, 6, ModeNormal, 50},
		{ModeCold, 5, ModeCold, 100},
		{ModeCold, -40, ModeCold, 100},
	}
	for _, tc := range cases {
		m := NewModel()
		c := NewController(m)
		c.mode = tc.from
		got := step(c, m, tc.temp)
		assert.Equal(t, tc.mode, got.mode, "%s at %d", tc.from, tc.temp)
		assert.Equal(t, tc.valve, got.valve, "%s at %d", tc.from, tc.temp)
	}
}

func TestUnknownModeFallsBackToNormal(t *testing.T) {
	m := NewModel()
	m.SetWaterValveFlow(10)
	c := NewController(m)
	c.mode = Mode(9)

	got := step(c, m, 50)
	assert.Equal(t, ModeNormal, got.mode)
	assert.Equal(t, 10, got.valve, "valve is not commanded on fallback")
	assert.Equal(t, 40, got.fan, "fan still follows the valve")
}

func TestFanFor(t *testing.T) {
	for flow := 0; flow <= 100; flow++ {
		want := 100
		switch {
		case flow == 0:
			want = 0
		case flow < 30:
			want = 40
		case flow < 70:
			want = 65
		}
		assert.Equal(t, want, FanFor(flow), "flow %d", flow)
	}
}

func TestFanFollowsValveForEveryFlow(t *testing.T) {
	for flow := 0; flow <= 100; flow++ {
		m := NewModel()
		c := NewController(m)
		m.SetWaterValveFlow(flow)
		c.mode = Mode(200) // leaves the valve untouched
		c.Transition()
		assert.Equal(t, FanFor(flow), m.FanIntensity(), "flow %d", flow)
	}
}

func TestHysteresis(t *testing.T) {
	m := NewModel()
	c := NewController(m)

	assert.Equal(t, state{ModeHot, 25, 40}, step(c, m, 21))
	assert.Equal(t, state{ModeHot, 25, 40}, step(c, m, 16))
	assert.Equal(t, state{ModeNormal, 50, 65}, step(c, m, 14))
}

func TestReferenceRun(t *testing.T) {
	want := []state{
		{ModeCold, 100, 100}, // -10
		{ModeCold, 100, 100}, // -5
		{ModeCold, 100, 100}, // 0
		{ModeCold, 100, 100}, // 5
		{ModeNormal, 50, 65}, // 10
		{ModeNormal, 50, 65}, // 15
		{ModeNormal, 50, 65}, // 20
		{ModeHot, 25, 40},    // 25
		{ModeHot, 25, 40},    // 30
		{ModeHot, 25, 40},    // 35
	}
	m := NewModel()
	c := NewController(m)
	for i, w := range want {
		temp := -10 + 5*i
		assert.Equal(t, w, step(c, m, temp), "tick %d at %dC", i, temp)
	}
}

func TestTransitionIdempotentInsideBand(t *testing.T) {
	for _, temp := range []int{-10, 0, 3, 10, 18, 20, 30} {
		m := NewModel()
		c := NewController(m)
		first := step(c, m, temp)
		second := step(c, m, temp)
		assert.Equal(t, first, second, "at %dC", temp)
	}
}

func TestTake(t *testing.T) {
	m := NewModel()
	c := NewController(m)
	step(c, m, 30)

	s := Take(m, c)
	assert.Equal(t, Snapshot{ATS: 30, WaterValve: 25, Fan: 40, Mode: ModeHot}, s)
}

func TestModeText(t *testing.T) {
	b, err := json.Marshal(Snapshot{Mode: ModeCold})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Mode":"cold"`)

	var s Snapshot
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, ModeCold, s.Mode)

	assert.Error(t, json.Unmarshal([]byte(`{"Mode":"tepid"}`), &s))
	assert.Equal(t, "unknown", Mode(7).String())
}
