package handlers

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
)

type (
	// Rewriter decides whether a response must be rewritten and
	// produces the replacement body from the original one.
	Rewriter interface {
		RewriteIf(header http.Header, status int, r *http.Request) bool
		Rewrite(w io.Writer, body []byte, status int)
	}

	// HeaderRewriter adjusts the headers of a rewritten response
	// before they are sent.
	HeaderRewriter interface {
		RewriteHeader(header http.Header, status int)
	}
)

type rewriteWriter struct {
	http.ResponseWriter
	req    *http.Request
	rw     Rewriter
	out    io.Writer
	buf    *bytes.Buffer
	status int
	wrote  bool
}

func (w *rewriteWriter) WriteHeader(status int) {
	if w.wrote {
		return
	}
	w.wrote = true
	w.status = status
	if w.rw.RewriteIf(w.Header(), status, w.req) {
		w.buf = new(bytes.Buffer)
		w.out = w.buf
		// The replacement body has its own length.
		w.Header().Del("Content-Length")
		if hrw, ok := w.rw.(HeaderRewriter); ok {
			hrw.RewriteHeader(w.Header(), status)
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *rewriteWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.out.Write(b)
}

// Hijack lets hijacking handlers, websocket upgrades among them,
// work through the rewriting writer.
func (w *rewriteWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("handlers: response writer is not a hijacker")
	}
	return hj.Hijack()
}

func (w *rewriteWriter) flush() {
	if w.buf != nil {
		w.rw.Rewrite(w.ResponseWriter, w.buf.Bytes(), w.status)
	}
}

// RewriteHandler returns a handler serving h, buffering the body of
// any response rw elects to rewrite and replacing it once h returns.
func RewriteHandler(rw Rewriter, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := &rewriteWriter{
			ResponseWriter: w,
			req:            r,
			rw:             rw,
			out:            w,
		}
		h.ServeHTTP(ww, r)
		ww.flush()
	})
}
