// Package rnet shares snapshots with other machines over UDP.
package rnet

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"gitlab.com/lologarithm/climatesim/climate"
)

// Default multicast groups.
const (
	DefaultGroup     = "225.1.2.3:8765" // snapshots from the loop
	DefaultDiscovery = "225.1.2.3:8766" // pings from monitors wanting direct delivery
)

// MaxFrame is the largest datagram read.
const MaxFrame = 512

// Msg is what is sent over the network. Exactly one field is set.
type Msg struct {
	Tick *Tick `cbor:"1,keyasint,omitempty"`
	Ping *Ping `cbor:"2,keyasint,omitempty"`
}

// Tick is the wire form of a snapshot.
type Tick struct {
	Run        string `cbor:"1,keyasint"`
	Tick       int    `cbor:"2,keyasint"`
	Time       int64  `cbor:"3,keyasint"` // unix nanoseconds
	ATS        int    `cbor:"4,keyasint"`
	WaterValve int    `cbor:"5,keyasint"`
	Fan        int    `cbor:"6,keyasint"`
	Mode       uint8  `cbor:"7,keyasint"`
}

func NewTick(s climate.Snapshot) *Tick {
	return &Tick{
		Run:        s.Run,
		Tick:       s.Tick,
		Time:       s.Time.UnixNano(),
		ATS:        s.ATS,
		WaterValve: s.WaterValve,
		Fan:        s.Fan,
		Mode:       uint8(s.Mode),
	}
}

func (t *Tick) Snapshot() climate.Snapshot {
	return climate.Snapshot{
		Run:        t.Run,
		Tick:       t.Tick,
		Time:       time.Unix(0, t.Time),
		ATS:        t.ATS,
		WaterValve: t.WaterValve,
		Fan:        t.Fan,
		Mode:       climate.Mode(t.Mode),
	}
}

// Ping asks a broadcaster to also send frames directly to the sender.
type Ping struct {
	Name string `cbor:"1,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create cbor encoder mode: %v", err))
	}
}

// Encode serializes a message into one frame.
func Encode(m Msg) ([]byte, error) {
	return encMode.Marshal(m)
}

// Decode parses one frame.
func Decode(b []byte) (Msg, error) {
	var m Msg
	if err := cbor.Unmarshal(b, &m); err != nil {
		return Msg{}, err
	}
	return m, nil
}

// usable reports whether itf can carry the multicast group to other hosts.
func usable(itf net.Interface) bool {
	return itf.Flags&net.FlagUp != 0 &&
		itf.Flags&net.FlagMulticast != 0 &&
		itf.Flags&net.FlagLoopback == 0 &&
		itf.HardwareAddr != nil &&
		!strings.HasPrefix(itf.Name, "docker")
}

// MulticastIPs returns the ipv4 addresses ticks are broadcast from, keyed by
// interface name.
func MulticastIPs() (map[string][]net.IP, error) {
	itfs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}
	ips := map[string][]net.IP{}
	for _, itf := range itfs {
		if !usable(itf) {
			continue
		}
		addrs, err := itf.Addrs()
		if err != nil {
			return nil, fmt.Errorf("addrs of %s: %w", itf.Name, err)
		}
		for _, addr := range addrs {
			ipn, ok := addr.(*net.IPNet)
			if !ok || ipn.IP.To4() == nil {
				continue
			}
			ips[itf.Name] = append(ips[itf.Name], ipn.IP.To4())
		}
	}
	return ips, nil
}
