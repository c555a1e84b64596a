package view

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"gitlab.com/lologarithm/climatesim/climate"
)

var upgrader = websocket.Upgrader{} // use default options

// Request is sent from a websocket client to the hub.
type Request struct {
	ATS *int // manual temperature for the next tick
}

// Hub pushes every snapshot to all connected websocket clients.
type Hub struct {
	datalock *sync.RWMutex
	latest   *climate.Snapshot

	clientslock   *sync.Mutex
	clientStreams []*websocket.Conn

	// Override receives manual temperatures from clients allowed to write.
	Override func(ats int)
}

func NewHub() *Hub {
	return &Hub{
		datalock:    &sync.RWMutex{},
		clientslock: &sync.Mutex{},
	}
}

// Latest returns the last snapshot displayed, if any.
func (h *Hub) Latest() (climate.Snapshot, bool) {
	h.datalock.RLock()
	defer h.datalock.RUnlock()
	if h.latest == nil {
		return climate.Snapshot{}, false
	}
	return *h.latest, true
}

// Display caches s and writes it to every client.
// Any socket that fails the write is dropped.
func (h *Hub) Display(s climate.Snapshot) error {
	h.datalock.Lock()
	h.latest = &s
	h.datalock.Unlock()

	d, err := json.Marshal(s)
	if err != nil {
		return err
	}

	deadstreams := []int{}
	h.clientslock.Lock()
	for i, cs := range h.clientStreams {
		if err := cs.WriteMessage(websocket.TextMessage, d); err != nil {
			deadstreams = append(deadstreams, i)
		}
	}
	// remove dead streams now
	for i := len(deadstreams) - 1; i > -1; i-- {
		idx := deadstreams[i]
		h.clientStreams[idx].Close()
		h.clientStreams = append(h.clientStreams[:idx], h.clientStreams[idx+1:]...)
	}
	h.clientslock.Unlock()
	return nil
}

// Clients returns the number of connected streams.
func (h *Hub) Clients() int {
	h.clientslock.Lock()
	defer h.clientslock.Unlock()
	return len(h.clientStreams)
}

// Serve upgrades the request and registers the client.
// Requests from the client are only honored when canWrite is set.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, canWrite bool) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade failure:", err)
		return
	}

	h.clientslock.Lock()
	if s, ok := h.Latest(); ok {
		c.WriteJSON(s)
	}
	h.clientStreams = append(h.clientStreams, c)
	h.clientslock.Unlock()

	go h.read(c, canWrite)
}

// read handles requests from one client until it disconnects.
func (h *Hub) read(c *websocket.Conn, canWrite bool) {
	for {
		v := &Request{}
		if err := c.ReadJSON(v); err != nil {
			log.Println("Disconnecting client: ", err)
			break
		}
		// Readers can't change anything
		if !canWrite {
			continue
		}
		if v.ATS != nil && h.Override != nil {
			log.Printf("Manual ATS from %s: %d", c.RemoteAddr(), *v.ATS)
			h.Override(*v.ATS)
		}
	}
	h.remove(c)
}

func (h *Hub) remove(c *websocket.Conn) {
	h.clientslock.Lock()
	defer h.clientslock.Unlock()
	for i, cs := range h.clientStreams {
		if cs == c {
			h.clientStreams = append(h.clientStreams[:i], h.clientStreams[i+1:]...)
			break
		}
	}
	c.Close()
}
