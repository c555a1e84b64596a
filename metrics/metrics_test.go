package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lologarithm/climatesim/climate"
)

func TestDisplaySetsGauges(t *testing.T) {
	m := New()
	require.NoError(t, m.Display(climate.Snapshot{ATS: -10, WaterValve: 100, Fan: 100, Mode: climate.ModeCold}))
	require.NoError(t, m.Display(climate.Snapshot{ATS: 25, WaterValve: 25, Fan: 40, Mode: climate.ModeHot}))

	assert.Equal(t, 25.0, testutil.ToFloat64(m.ATS))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.WaterValve))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.Fan))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mode.WithLabelValues("hot")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Mode.WithLabelValues("cold")))
}

func TestHandler(t *testing.T) {
	m := New()
	require.NoError(t, m.Display(climate.Snapshot{ATS: 10, WaterValve: 50, Fan: 65}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "climatesim_fan_intensity_percent 65")
	assert.Contains(t, string(b), `climatesim_mode{mode="normal"} 1`)
}
