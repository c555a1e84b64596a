package rnet

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"gitlab.com/lologarithm/climatesim/climate"
)

// ListenerTimeout is how long a directed listener lives without a ping.
const ListenerTimeout = 10 * time.Minute

type Listener struct {
	Addr     *net.UDPAddr
	AddrStr  string
	LastPing time.Time
}

// UpdateListeners refreshes addr or adds it when it is new.
func UpdateListeners(listeners []Listener, addr *net.UDPAddr, now time.Time) []Listener {
	addrStr := addr.String()
	for i := range listeners {
		if listeners[i].AddrStr == addrStr {
			listeners[i].LastPing = now
			return listeners
		}
	}
	return append(listeners, Listener{Addr: addr, LastPing: now, AddrStr: addrStr})
}

// BroadcastAndTimeout will send msg to every listener via the given udp conn.
// Any listeners who have been idle for over ListenerTimeout are removed.
func BroadcastAndTimeout(conn *net.UDPConn, msg []byte, listeners []Listener, now time.Time) []Listener {
	toremove := []int{}
	for i, l := range listeners {
		if now.Sub(l.LastPing) > ListenerTimeout {
			toremove = append(toremove, i)
			continue
		}
		if _, err := conn.WriteToUDP(msg, l.Addr); err != nil {
			log.Printf("[Error] Failed to send to listener %s: %s", l.AddrStr, err)
		}
	}
	// remove the dead listeners
	for i := len(toremove) - 1; i > -1; i-- {
		idx := toremove[i]
		copy(listeners[idx:], listeners[idx+1:]) // copy back
		listeners = listeners[:len(listeners)-1] // slice off end
	}
	return listeners
}

// Broadcaster is a view that sends every snapshot to a multicast group and
// to the directed listeners that pinged recently.
type Broadcaster struct {
	conn  *net.UDPConn
	group *net.UDPAddr

	mu        sync.Mutex
	listeners []Listener
}

// NewBroadcaster opens a udp socket on local (may be ":0") sending to group.
func NewBroadcaster(local, group string) (*Broadcaster, error) {
	laddr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", local, err)
	}
	gaddr, err := net.ResolveUDPAddr("udp", group)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", group, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", local, err)
	}
	return &Broadcaster{conn: conn, group: gaddr}, nil
}

func (b *Broadcaster) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

func (b *Broadcaster) Display(s climate.Snapshot) error {
	msg, err := Encode(Msg{Tick: NewTick(s)})
	if err != nil {
		return err
	}
	if _, err := b.conn.WriteToUDP(msg, b.group); err != nil {
		return fmt.Errorf("broadcasting tick %d: %w", s.Tick, err)
	}
	b.mu.Lock()
	b.listeners = BroadcastAndTimeout(b.conn, msg, b.listeners, time.Now())
	b.mu.Unlock()
	return nil
}

// Listeners returns a copy of the directed listeners.
func (b *Broadcaster) Listeners() []Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Listener(nil), b.listeners...)
}

// ServePings reads ping frames from conn and registers their senders as
// directed listeners until ctx is done or conn fails.
func (b *Broadcaster) ServePings(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, MaxFrame)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, remoteAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		m, err := Decode(buf[:n])
		if err != nil || m.Ping == nil {
			continue
		}
		b.mu.Lock()
		b.listeners = UpdateListeners(b.listeners, remoteAddr, time.Now())
		b.mu.Unlock()
	}
}

func (b *Broadcaster) Close() error {
	return b.conn.Close()
}
