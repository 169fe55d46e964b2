package wharf

import (
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wharfd/wharf/fileserver"
)

// Server serves the static root over HTTP.
// It owns its listener: ListenAndServe binds the configured address
// and Close shuts the listener and its connections down.
type Server struct {
	Config Config
	Files  fileserver.Server
	Stats  *Stats
	Addr   string
	Port   uint16
	// Started is closed once the server listens.
	Started chan struct{}

	srv       *http.Server
	ln        net.Listener
	notifiers []fileserver.NotifyFunc
}

// NewServer wires a server from cfg. cfg must have passed Check.
// Every response is counted in Stats and forwarded to the notifiers
// registered with OnServe.
func NewServer(cfg Config) *Server {
	fs := fileserver.New(cfg.Root, cfg.DefaultDocument)
	srv := &Server{
		Config:  cfg,
		Files:   fs,
		Stats:   NewStats(),
		Addr:    cfg.Addr,
		Started: make(chan struct{}),
	}
	fs.Notify(srv.notify)
	return srv
}

// OnServe registers fn to receive each response's path, status and
// body size. It must be called before ListenAndServe.
func (ws *Server) OnServe(fn fileserver.NotifyFunc) {
	ws.notifiers = append(ws.notifiers, fn)
}

func (ws *Server) notify(path string, status, bytes int) {
	ws.Stats.Record(status, bytes)
	for _, fn := range ws.notifiers {
		fn(path, status, bytes)
	}
}

// Handler returns the serving handler chain: a catch-all route
// accepting GET only, with access logging to logw when it is not nil.
func (ws *Server) Handler(logw io.Writer) http.Handler {
	r := mux.NewRouter()
	r.PathPrefix("/").Handler(handlers.MethodHandler{
		"GET": ws.Files,
	})
	if logw == nil {
		return r
	}
	return handlers.CombinedLoggingHandler(logw, r)
}

func (ws *Server) ListenAndServe(logw io.Writer) error {
	ln, err := net.Listen("tcp", ws.Addr)
	if err != nil {
		return err
	}
	ws.Addr = ln.Addr().String()
	_, sport, err := net.SplitHostPort(ws.Addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(sport)
	if err != nil {
		return err
	}
	ws.Port = uint16(port)
	ws.srv = &http.Server{
		Handler: ws.Handler(logw),
	}
	ws.ln = &connsCloserListener{
		Listener: tcpKeepAliveListener{ln.(*net.TCPListener)},
	}

	close(ws.Started)
	if err := ws.srv.Serve(ws.ln); err != nil {
		return err
	}
	return nil
}

func (ws *Server) Close() error {
	return ws.ln.Close()
}

type connsCloserListener struct {
	net.Listener
	conns []net.Conn
}

func (ln *connsCloserListener) Accept() (c net.Conn, err error) {
	c, err = ln.Listener.Accept()
	if err != nil {
		return
	}
	ln.conns = append(ln.conns, c)
	return c, nil
}

func (ln *connsCloserListener) Close() error {
	for _, c := range ln.conns {
		if err := c.Close(); err != nil {
			log.Println(err)
		}
	}
	ln.conns = nil
	return ln.Listener.Close()
}

// borrowed from net/http
type tcpKeepAliveListener struct {
	*net.TCPListener
}

// borrowed from net/http
func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
