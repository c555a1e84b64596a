package climate

import "fmt"

// Mode is the hysteresis state of the controller.
type Mode byte

const (
	ModeNormal Mode = iota // Valve at half flow
	ModeHot                // Entered above 20C, left below 15C
	ModeCold               // Entered below 0C, left above 5C
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeHot:
		return "hot"
	case ModeCold:
		return "cold"
	}
	return "unknown"
}

// MarshalText lets the mode show up by name in json and yaml.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (m *Mode) UnmarshalText(b []byte) error {
	v, ok := ParseMode(string(b))
	if !ok {
		return fmt.Errorf("unknown mode %q", string(b))
	}
	*m = v
	return nil
}

// ParseMode converts a mode name back into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "normal":
		return ModeNormal, true
	case "hot":
		return ModeHot, true
	case "cold":
		return ModeCold, true
	}
	return ModeNormal, false
}

// Hysteresis band and the valve flow commanded for each mode.
const (
	hotEnter  = 20
	hotExit   = 15
	coldEnter = 0
	coldExit  = 5

	normalFlow = 50
	hotFlow    = 25
	coldFlow   = 100
)

// Controller switches modes from the model temperature and drives the
// valve and fan of the model it was created with.
type Controller struct {
	model *Model
	mode  Mode
}

// NewController binds a controller in normal mode to m.
func NewController(m *Model) *Controller {
	return &Controller{model: m, mode: ModeNormal}
}

// Mode returns the current hysteresis state.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Transition runs one tick: update the mode and valve from the current
// temperature, then derive the fan intensity from the valve just set.
func (c *Controller) Transition() {
	t := c.model.ATS()

	switch c.mode {
	case ModeNormal:
		if t > hotEnter {
			c.mode = ModeHot
		} else if t < coldEnter {
			c.mode = ModeCold
		}
		c.model.SetWaterValveFlow(flowFor(c.mode))
	case ModeHot:
		if t < hotExit {
			c.mode = ModeNormal
		}
		c.model.SetWaterValveFlow(flowFor(c.mode))
	case ModeCold:
		if t > coldExit {
			c.mode = ModeNormal
		}
		c.model.SetWaterValveFlow(flowFor(c.mode))
	default:
		// Out of range modes fall back to normal; the valve keeps its
		// last command until the next tick.
		c.mode = ModeNormal
	}

	c.model.SetFanIntensity(FanFor(c.model.WaterValveFlow()))
}

func flowFor(m Mode) int {
	switch m {
	case ModeHot:
		return hotFlow
	case ModeCold:
		return coldFlow
	}
	return normalFlow
}

// FanFor maps a valve flow onto the fan intensity it requires.
func FanFor(flow int) int {
	switch {
	case flow == 0:
		return 0
	case flow > 0 && flow < 30:
		return 40
	case flow >= 30 && flow < 70:
		return 65
	case flow >= 70:
		return 100
	}
	// Negative flows never reach the valve, leave the fan alone.
	return -1
}
