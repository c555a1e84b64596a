// Package server exposes the loop over http: status page, json state,
// history, the websocket stream, manual overrides and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/lologarithm/climatesim/config"
	"gitlab.com/lologarithm/climatesim/stats"
	"gitlab.com/lologarithm/climatesim/view"
)

// ProxyAddrHeader carries the client address when behind a reverse proxy.
const ProxyAddrHeader = "X-Real-IP"

// OverrideRequest is the body of POST /ats.
type OverrideRequest struct {
	ATS *int
}

type Server struct {
	users    map[string]config.User
	hub      *view.Hub
	history  stats.Recorder
	metrics  http.Handler
	override func(ats int)

	router *mux.Router
}

// Options lists the optional parts of the server. Nil fields disable the
// matching routes.
type Options struct {
	Users    map[string]config.User
	History  stats.Recorder
	Metrics  http.Handler
	Override func(ats int)
}

func New(hub *view.Hub, opts Options) *Server {
	srv := &Server{
		users:    opts.Users,
		hub:      hub,
		history:  opts.History,
		metrics:  opts.Metrics,
		override: opts.Override,
		router:   mux.NewRouter(),
	}
	hub.Override = opts.Override

	r := srv.router
	r.HandleFunc("/", srv.index).Methods(http.MethodGet)
	r.HandleFunc("/state", srv.state).Methods(http.MethodGet)
	r.HandleFunc("/history", srv.historyHandler).Methods(http.MethodGet)
	r.HandleFunc("/stream", srv.stream).Methods(http.MethodGet)
	r.HandleFunc("/ats", srv.setATS).Methods(http.MethodPost)
	if srv.metrics != nil {
		r.Handle("/metrics", srv.metrics).Methods(http.MethodGet)
	}
	return srv
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.router.ServeHTTP(w, r)
}

// ListenAndServe blocks until ctx is done, then shuts the listener down.
func (srv *Server) ListenAndServe(ctx context.Context, host string) error {
	hs := &http.Server{Addr: host, Handler: srv}
	errc := make(chan error, 1)
	go func() {
		log.Printf("starting webhost on: %s", host)
		errc <- hs.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (srv *Server) index(w http.ResponseWriter, r *http.Request) {
	if srv.auth(w, r) == config.AccessNone {
		return // Don't let them access
	}
	s, _ := srv.hub.Latest()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, renderPage(s))
}

func (srv *Server) state(w http.ResponseWriter, r *http.Request) {
	if srv.auth(w, r) == config.AccessNone {
		return
	}
	s, ok := srv.hub.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, s)
}

func (srv *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if srv.auth(w, r) == config.AccessNone {
		return
	}
	if srv.history == nil {
		http.Error(w, "no history recorded", http.StatusNotFound)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	events, err := srv.history.History(limit)
	if err != nil {
		log.Printf("[Error] Failed to load history: %s", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (srv *Server) stream(w http.ResponseWriter, r *http.Request) {
	access := srv.auth(w, r)
	if access == config.AccessNone {
		return
	}
	srv.hub.Serve(w, r, access == config.AccessWrite)
}

// setATS queues a manual temperature for the next tick. It accepts a json
// OverrideRequest or the form posted by the status page.
func (srv *Server) setATS(w http.ResponseWriter, r *http.Request) {
	access := srv.auth(w, r)
	if access == config.AccessNone {
		return
	}
	if access != config.AccessWrite {
		http.Error(w, "read only", http.StatusForbidden)
		return
	}
	if srv.override == nil {
		http.Error(w, "overrides disabled", http.StatusNotFound)
		return
	}

	var ats int
	isForm := strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
	if isForm {
		v, err := strconv.Atoi(strings.TrimSpace(r.FormValue("ats")))
		if err != nil {
			http.Error(w, "bad ats", http.StatusBadRequest)
			return
		}
		ats = v
	} else {
		req := OverrideRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ATS == nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		ats = *req.ATS
	}

	log.Printf("Manual ATS from %s: %d", clientAddr(r), ats)
	srv.override(ats)
	if isForm {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Error] Failed to write json: %s", err)
	}
}

// clientAddr returns the client ip. X-Real-IP is only trusted when the
// connection itself comes from a proxy on this host.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if paddr := r.Header.Get(ProxyAddrHeader); paddr != "" {
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			return paddr
		}
	}
	return host
}

// isLocal reports whether addr is loopback or on a private network.
func isLocal(addr string) bool {
	ip := net.ParseIP(addr)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}

// auth returns the access level of the request, writing a 401 when it has none.
// Intra-net clients get write access without credentials.
func (srv *Server) auth(w http.ResponseWriter, r *http.Request) int {
	addr := clientAddr(r)
	if isLocal(addr) {
		return config.AccessWrite
	}
	name, pwd, _ := r.BasicAuth()
	user, ok := srv.users[name]
	if !ok || user.Pwd != pwd || user.Access == config.AccessNone {
		log.Printf("Unauthed User: %s", addr)
		w.Header().Set("WWW-Authenticate", `Basic realm="Climatesim"`)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("NO ACCESS."))
		return config.AccessNone
	}
	return user.Access
}
