package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lologarithm/climatesim/climate"
)

func snapshots(run string, n int) []climate.Snapshot {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := []climate.Snapshot{}
	for i := 0; i < n; i++ {
		out = append(out, climate.Snapshot{
			Run:        run,
			Tick:       i,
			Time:       base.Add(time.Duration(i) * time.Second),
			ATS:        -10 + 5*i,
			WaterValve: 100,
			Fan:        100,
			Mode:       climate.ModeCold,
		})
	}
	return out
}

func assertSame(t *testing.T, want, got []climate.Snapshot) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Time.Equal(got[i].Time), "time of %d", i)
		got[i].Time = want[i].Time
		assert.Equal(t, want[i], got[i])
	}
}

func testRecorder(t *testing.T, r Recorder) {
	in := snapshots("run1", 5)
	for _, s := range in {
		require.NoError(t, r.Display(s))
	}

	all, err := r.History(0)
	require.NoError(t, err)
	assertSame(t, in, all)

	last, err := r.History(2)
	require.NoError(t, err)
	assertSame(t, in[3:], last)
}

func TestGobRecorder(t *testing.T) {
	dir := t.TempDir()
	r, err := NewGobRecorder(dir)
	require.NoError(t, err)
	testRecorder(t, r)
	require.NoError(t, r.Close())

	// A second recorder picks up the first run from disk.
	r2, err := NewGobRecorder(dir)
	require.NoError(t, err)
	defer r2.Close()
	require.NoError(t, r2.Display(snapshots("run2", 1)[0]))

	all, err := r2.History(0)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "run1", all[0].Run)
	assert.Equal(t, "run2", all[5].Run)

	loaded, err := LoadStats(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 6)
}

func TestLoadStatsMissingDir(t *testing.T) {
	_, err := LoadStats(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "ticks.sqlite3"), 3)
	require.NoError(t, err)
	defer r.Close()
	testRecorder(t, r)
}

func TestSQLiteRecorderBatches(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "ticks.sqlite3"), 3)
	require.NoError(t, err)
	defer r.Close()

	count := func() int {
		var n int
		require.NoError(t, r.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&n))
		return n
	}
	for _, s := range snapshots("run", 2) {
		require.NoError(t, r.Display(s))
	}
	assert.Equal(t, 0, count())
	require.NoError(t, r.Display(snapshots("run", 3)[2]))
	assert.Equal(t, 3, count())
}

func TestSQLiteRecorderCloseAfterFailedFlush(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "ticks.sqlite3"), 3)
	require.NoError(t, err)

	require.NoError(t, r.Display(snapshots("run", 1)[0]))
	_, err = r.Exec("DROP TABLE ticks")
	require.NoError(t, err)

	assert.Error(t, r.Close())
	assert.Error(t, r.Ping(), "database is closed anyway")
	assert.Error(t, r.exitID.Cancel(), "exit flush was removed")
}
