// Package admin exposes a read-only HTTP API over a running wharf
// server: its configuration, its serve counters and a websocket
// stream of file-serve events.
package admin

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wharfd/wharf"
)

const (
	routeStatus = "status"
	routeStats  = "stats"
	routeEvents = "events"
)

// Handler is the admin API handler for a single wharf server.
type Handler struct {
	srv     *wharf.Server
	h       http.Handler
	events  *eventsHandler
	baseURL *url.URL
}

// NewHandler builds the admin API for srv and subscribes to its
// responses to feed the event stream. It must be given the server
// before it starts serving.
func NewHandler(srv *wharf.Server) *Handler {
	ah := Handler{
		srv:    srv,
		events: newEventsHandler(),
	}
	go ah.events.Broadcast()
	srv.OnServe(func(path string, status, bytes int) {
		ah.events.Send(Event{EventTypeFileServe, FileServeEvent{path, status, bytes}})
	})

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api/").Subrouter()
	apiRouter.Handle("/status", handlers.MethodHandler{
		"GET": http.HandlerFunc(ah.getStatus),
	}).Name(routeStatus)
	apiRouter.Handle("/stats", handlers.MethodHandler{
		"GET":    http.HandlerFunc(ah.getStats),
		"DELETE": http.HandlerFunc(ah.resetStats),
	}).Name(routeStats)
	apiRouter.Handle("/events", ah.events).Name(routeEvents)
	ah.h = jsonResponseRewriteHandler(r)
	return &ah
}

func (ah *Handler) SetBaseURL(u *url.URL) {
	ah.baseURL = u
}

func (ah *Handler) BaseURL() *url.URL {
	return ah.baseURL
}

func (ah *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ah.h.ServeHTTP(w, r)
}

// Status describes the serving configuration of a wharf server.
type Status struct {
	BindAddress     string    `json:"bind_address"`
	Port            uint16    `json:"port"`
	Root            string    `json:"root"`
	DefaultDocument string    `json:"default_document"`
	StartTime       time.Time `json:"start_time"`
}

func newStatusFromServer(srv *wharf.Server) *Status {
	host, _, _ := net.SplitHostPort(srv.Addr)
	return &Status{
		BindAddress:     host,
		Port:            srv.Port,
		Root:            srv.Files.Root(),
		DefaultDocument: srv.Config.DefaultDocument,
		StartTime:       srv.Stats.Started(),
	}
}

func (ah *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(newStatusFromServer(ah.srv)); err != nil {
		log.Print(err)
	}
}

func (ah *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ah.srv.Stats.Snapshot()); err != nil {
		log.Print(err)
	}
}

func (ah *Handler) resetStats(w http.ResponseWriter, r *http.Request) {
	data := ah.srv.Stats.Reset()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Print(err)
	}
}
