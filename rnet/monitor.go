package rnet

import (
	"context"
	"log"
	"net"
	"time"

	"gitlab.com/lologarithm/climatesim/climate"
)

// JoinGroup listens to the multicast group at addr.
func JoinGroup(addr string) (*net.UDPConn, error) {
	gaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	return net.ListenMulticastUDP("udp", nil, gaddr)
}

// Listen decodes snapshot frames arriving on conn. The channel is closed
// when ctx is done or the connection fails.
func Listen(ctx context.Context, conn *net.UDPConn) <-chan climate.Snapshot {
	stream := make(chan climate.Snapshot, 10)
	go func() {
		defer close(stream)
		b := make([]byte, MaxFrame)
		for {
			if ctx.Err() != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			n, _, err := conn.ReadFromUDP(b)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				log.Printf("[Error] Failed to read snapshot: %s", err)
				return
			}
			m, err := Decode(b[:n])
			if err != nil {
				log.Printf("[Error] Failed to decode msg: %s", err)
				continue
			}
			if m.Tick == nil {
				continue
			}
			select {
			case stream <- m.Tick.Snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()
	return stream
}

// Subscribe asks broadcasters on the discovery group to send frames straight
// to conn, repeating the ping every interval so the registration stays fresh.
func Subscribe(ctx context.Context, conn *net.UDPConn, discovery, name string, interval time.Duration) error {
	daddr, err := net.ResolveUDPAddr("udp", discovery)
	if err != nil {
		return err
	}
	ping, err := Encode(Msg{Ping: &Ping{Name: name}})
	if err != nil {
		return err
	}
	send := func() {
		if _, err := conn.WriteToUDP(ping, daddr); err != nil {
			log.Printf("[Error] Failed to ping %s: %s", discovery, err)
		}
	}
	send()
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				send()
			}
		}
	}()
	return nil
}
