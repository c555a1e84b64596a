// Package gpio mirrors the actuators onto raspberry pi pwm pins.
package gpio

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"gitlab.com/lologarithm/climatesim/climate"
)

// Cycle is the pwm cycle length; a duty of N out of Cycle is N percent.
const Cycle = 100

type dutyCycler interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

// PWM is a view that sets the fan and valve pins to their percentages.
type PWM struct {
	fan   dutyCycler
	valve dutyCycler
}

// Open maps gpio memory and puts both pins in pwm mode at freq Hz.
// It fails on machines without raspberry pi gpio.
func Open(fanPin, valvePin, freq int) (*PWM, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("unable to open raspberry pi gpio pins: %w", err)
	}
	fan := rpio.Pin(fanPin)
	valve := rpio.Pin(valvePin)
	for _, p := range []rpio.Pin{fan, valve} {
		p.Mode(rpio.Pwm)
		p.Freq(freq * Cycle)
	}
	return &PWM{fan: fan, valve: valve}, nil
}

func (p *PWM) Display(s climate.Snapshot) error {
	p.fan.DutyCycle(uint32(s.Fan), Cycle)
	p.valve.DutyCycle(uint32(s.WaterValve), Cycle)
	return nil
}

// Close stops both outputs and releases gpio memory.
func (p *PWM) Close() error {
	p.fan.DutyCycle(0, Cycle)
	p.valve.DutyCycle(0, Cycle)
	return rpio.Close()
}
