package climate

import "time"

// Snapshot is a copy of the model taken after a transition.
// Views only ever see snapshots, never the model itself.
type Snapshot struct {
	Run        string    // ID of the loop run that produced it
	Tick       int       // 0 based tick number within the run
	Time       time.Time // When the tick completed
	ATS        int       // Temperature in C
	WaterValve int       // Valve flow in percent
	Fan        int       // Fan intensity in percent
	Mode       Mode
}

// Take copies the current state of m and the mode of c.
func Take(m *Model, c *Controller) Snapshot {
	return Snapshot{
		ATS:        m.ATS(),
		WaterValve: m.WaterValveFlow(),
		Fan:        m.FanIntensity(),
		Mode:       c.Mode(),
	}
}
