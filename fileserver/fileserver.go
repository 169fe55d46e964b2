package fileserver

import (
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Server serves files from a root directory.
type Server interface {
	http.Handler
	Root() string
}

// NotifyFunc receives the request path, response status and number of
// body bytes written for every response produced by a Static server.
type NotifyFunc func(path string, status int, bytes int)

// Static serves regular files found under a fixed root directory.
// The root path must be absolute. A request for "/" is served the
// default document; a request resolving to a directory is served the
// default document inside it, if present. Every resolved path is
// checked to be a descendant of the root before any file is opened;
// paths escaping the root are answered with 404.
type Static struct {
	root   string
	index  string
	notify NotifyFunc
}

// New returns a Static serving files under root, with index as the
// default document name.
func New(root, index string) *Static {
	return &Static{root: root, index: index}
}

func (s *Static) Root() string {
	return s.root
}

// Notify registers fn to be called after each response.
// It must not be called once the server is serving.
func (s *Static) Notify(fn NotifyFunc) {
	s.notify = fn
}

func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, n := s.serve(w, r)
	if s.notify != nil {
		s.notify(r.URL.Path, status, n)
	}
}

func (s *Static) serve(w http.ResponseWriter, r *http.Request) (status, bytes int) {
	name, ok := s.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return http.StatusNotFound, 0
	}
	b, err := os.ReadFile(name)
	if err != nil {
		// The file existed at resolve time; this is a permission or
		// I/O failure, not an absent file.
		log.Printf("read %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return http.StatusInternalServerError, 0
	}
	w.Header().Set("Content-Type", TypeByName(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(b)
	if err != nil {
		log.Printf("write %s: %v", r.URL.Path, err)
	}
	return http.StatusOK, n
}

// resolve maps a request path to a regular file under the root.
// It reports false when the path escapes the root or no regular file
// exists at the resolved location.
func (s *Static) resolve(reqPath string) (string, bool) {
	if reqPath == "" || reqPath == "/" {
		reqPath = "/" + s.index
	}
	name := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+reqPath)))
	// Cleaning with a leading slash collapses any ".." before the
	// join, but the descendant invariant is checked explicitly rather
	// than assumed.
	if name != s.root && !strings.HasPrefix(name, s.root+string(os.PathSeparator)) {
		return "", false
	}
	fi, err := os.Stat(name)
	if err != nil {
		return "", false
	}
	if fi.IsDir() {
		name = filepath.Join(name, s.index)
		fi, err = os.Stat(name)
		if err != nil {
			return "", false
		}
	}
	if !fi.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

// mimeTypes pins the content types wharf serves most, so responses do
// not depend on the host's MIME database.
var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// TypeByName returns the content type for a file name, falling back
// to the platform MIME table, then to application/octet-stream.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
