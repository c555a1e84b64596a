package climate

// Bounds shared by every actuator.
const (
	MinLevel = 0
	MaxLevel = 100
)

// FanController holds the fan intensity in percent.
type FanController struct {
	intensity int
}

// Set applies v only when it is within [0,100]. Anything else is ignored.
func (f *FanController) Set(v int) {
	if v >= MinLevel && v <= MaxLevel {
		f.intensity = v
	}
}

func (f *FanController) Intensity() int {
	return f.intensity
}

// WaterValveController holds the water valve flow in percent.
type WaterValveController struct {
	flow int
}

// Set applies v only when it is within [0,100]. Anything else is ignored.
func (w *WaterValveController) Set(v int) {
	if v >= MinLevel && v <= MaxLevel {
		w.flow = v
	}
}

func (w *WaterValveController) Flow() int {
	return w.flow
}

// Model is the state shared by the controller and the views.
// The actuators are only reachable through the bounded setters below.
type Model struct {
	fan   FanController
	valve WaterValveController
	ats   int // Last temperature reading in C
}

// NewModel returns a model with everything at zero.
func NewModel() *Model {
	return &Model{}
}

// ReadATS stores a new temperature reading. No validation is done.
func (m *Model) ReadATS(v int) {
	m.ats = v
}

func (m *Model) ATS() int {
	return m.ats
}

func (m *Model) WaterValveFlow() int {
	return m.valve.Flow()
}

func (m *Model) FanIntensity() int {
	return m.fan.Intensity()
}

func (m *Model) SetWaterValveFlow(v int) {
	m.valve.Set(v)
}

func (m *Model) SetFanIntensity(v int) {
	m.fan.Set(v)
}
