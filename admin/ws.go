package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type (
	Event struct {
		Type     EventType   `json:"type"`
		Resource interface{} `json:"resource"`
	}
	EventType int
)

const (
	EventTypeFileServe EventType = 1 + iota
)

// FileServeEvent reports one response written by the file server.
type FileServeEvent struct {
	Path   string `json:"path"`
	Status int    `json:"status"`
	Bytes  int    `json:"bytes"`
}

type rawevt struct {
	Type     EventType       `json:"type"`
	Resource json.RawMessage `json:"resource"`
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var evt rawevt
	if err := json.Unmarshal(b, &evt); err != nil {
		return err
	}
	var res interface{}
	switch evt.Type {
	case EventTypeFileServe:
		res = new(FileServeEvent)
	default:
		return fmt.Errorf("unknown event type %d", evt.Type)
	}
	if err := json.Unmarshal(evt.Resource, res); err != nil {
		return err
	}
	*e = Event{
		Type:     evt.Type,
		Resource: res,
	}
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 8,
	WriteBufferSize: 1 << 10,
}

var (
	writeWait = time.Second * 10
	pongWait  = time.Second * 60
	pingWait  = (pongWait * 9) / 10
)

// eventsHandler broadcasts events to its websocket clients.
// Conn registration and event dispatch all happen on the Broadcast
// goroutine; a client too slow to drain its channel is dropped.
type eventsHandler struct {
	conns   map[*conn]bool
	sub     chan *conn
	unsub   chan *conn
	eventCh chan *Event
}

func newEventsHandler() *eventsHandler {
	return &eventsHandler{
		conns:   make(map[*conn]bool),
		sub:     make(chan *conn),
		unsub:   make(chan *conn),
		eventCh: make(chan *Event),
	}
}

type conn struct {
	*websocket.Conn
	eventCh chan *Event
}

func (s *eventsHandler) Send(event Event) {
	s.eventCh <- &event
}

func (s *eventsHandler) Broadcast() {
	for {
		select {
		case c := <-s.sub:
			s.conns[c] = true
		case c := <-s.unsub:
			if s.conns[c] {
				delete(s.conns, c)
				close(c.eventCh)
			}
		case event := <-s.eventCh:
			for c := range s.conns {
				select {
				case c.eventCh <- event:
				case <-time.After(time.Second):
					go func(c *conn) {
						s.unsub <- c
					}(c)
				}
			}
		}
	}
}

func (s *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return
	}
	defer ws.Close()

	c := &conn{ws, make(chan *Event, 8)}
	s.sub <- c
	defer func() {
		s.unsub <- c
	}()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		c.SetReadDeadline(time.Now().Add(pongWait))
		c.SetPongHandler(func(string) error {
			c.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingWait)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				// Dropped by Broadcast.
				c.SetWriteDeadline(time.Now().Add(writeWait))
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		case <-readDone:
			return
		}
	}
}
