package sensor

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

const (
	maxWait = int64(time.Millisecond) // 100us
	retries = 10
)

// ErrNoReading is returned when every retry failed the checksum.
var ErrNoReading = errors.New("no valid dht22 reading")

// DHT22 reads temperature from a DHT22 on a raspberry pi gpio pin.
// rpio.Open must have succeeded before Next is called.
type DHT22 struct {
	Pin rpio.Pin
}

func NewDHT22(pin int) *DHT22 {
	return &DHT22{Pin: rpio.Pin(pin)}
}

// Next reads the sensor, retrying up to 10 times, and rounds to whole degrees.
func (d *DHT22) Next(ctx context.Context) (int, error) {
	// No GC pauses while timing pulses.
	defer debug.SetGCPercent(debug.SetGCPercent(-1))

	for i := 0; i < retries; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t, _, ok := readDHT22(d.Pin)
		if ok {
			return int(math.Round(float64(t))), nil
		}
	}
	return 0, ErrNoReading
}

func readDHT22(pin rpio.Pin) (float32, float32, bool) {
	// early allocations before time critical code
	pulseLen := make([]int64, 82)

	time.Sleep(1700 * time.Millisecond)
	pin.Mode(rpio.Output)
	pin.High()

	// send init values
	time.Sleep(400 * time.Millisecond)
	pin.Low()

	// spinlock for milliseconds while pin is low.
	// this signals the request for reading
	s := time.Now().UnixNano()
	to := int64(time.Millisecond * 20)
	for time.Now().UnixNano()-s < to {
	}
	pin.Mode(rpio.Input)
	pin.PullUp()

	// now we wait for DHT to pull low
	s = time.Now().UnixNano()
	firstWaitMax := int64(time.Millisecond * 5)
	for pin.Read() == rpio.High {
		if time.Now().UnixNano()-s > firstWaitMax {
			return -1, -1, false // DHT never pulled low... probably retry
		}
	}

	// DHT pulls low for 80us and then 80us to signal its starting
	// After that we read 40 low and 40 high pulses.
	var end int64
READER:
	for i := 0; i < 81; i += 2 {
		s = 0
		end = 0
		for pin.Read() == rpio.Low {
			if end-s > maxWait {
				break READER
			}
			end++
		}
		pulseLen[i] = end - s

		s = 0
		end = 0
		for pin.Read() == rpio.High {
			if end-s > maxWait {
				break READER
			}
			end++
		}
		pulseLen[i+1] = end - s
	}
	pin.PullOff()

	return decodePulses(pulseLen)
}

// decodePulses turns the 41 low/high pulse pairs into a reading.
// High pulses longer than the average low pulse are ones.
func decodePulses(pulseLen []int64) (float32, float32, bool) {
	var threshold int64
	for i := 2; i < 82; i += 2 {
		threshold += pulseLen[i]
	}
	threshold /= 40

	bytes := make([]uint8, 5)
	for i := 3; i < 82; i += 2 {
		bi := (i - 3) / 16
		bytes[bi] <<= 1
		if pulseLen[i] > threshold {
			bytes[bi] |= 0x01
		}
	}
	return decodeFrame(bytes)
}

func decodeFrame(bytes []uint8) (float32, float32, bool) {
	humidity := float32(uint16(bytes[0])*256+uint16(bytes[1])) / 10.0
	temperature := float32((uint16(bytes[2])&0x7F)*256+uint16(bytes[3])) / 10.0
	// high bit of the temperature is the sign
	if uint16(bytes[2])&0x80 > 0 {
		temperature *= -1
	}
	return temperature, humidity, checksum(bytes)
}

func checksum(bytes []uint8) bool {
	var sum uint8
	for i := 0; i < 4; i++ {
		sum += bytes[i]
	}
	return sum == bytes[4]
}
