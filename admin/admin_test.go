package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wharfd/wharf"
	"github.com/wharfd/wharf/admin"
)

func newWharfServer(t *testing.T) *wharf.Server {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>hi</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := wharf.Config{
		Root:            root,
		DefaultDocument: "index.html",
		Addr:            "localhost:0",
	}
	if err := cfg.Check(); err != nil {
		t.Fatal(err)
	}
	return wharf.NewServer(cfg)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.ServeHTTP(w, r)
	return w
}

func TestGetStatus(t *testing.T) {
	srv := newWharfServer(t)
	ah := admin.NewHandler(srv)

	w := do(t, ah, "GET", "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var status admin.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Root != srv.Files.Root() {
		t.Errorf("expected root %q, got %q", srv.Files.Root(), status.Root)
	}
	if status.DefaultDocument != "index.html" {
		t.Errorf("expected default document %q, got %q", "index.html", status.DefaultDocument)
	}
	if status.BindAddress != "localhost" {
		t.Errorf("expected bind address %q, got %q", "localhost", status.BindAddress)
	}
}

func TestStatsEndpoints(t *testing.T) {
	srv := newWharfServer(t)
	ah := admin.NewHandler(srv)
	static := srv.Handler(nil)

	do(t, static, "GET", "/")
	do(t, static, "GET", "/nope.css")

	w := do(t, ah, "GET", "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var data wharf.StatsData
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	want := wharf.StatsData{Requests: 2, Served: 1, NotFound: 1, Bytes: uint64(len("<html>hi</html>"))}
	if data != want {
		t.Errorf("expected stats %+v, got %+v", want, data)
	}

	// DELETE returns the counters prior to the reset...
	w = do(t, ah, "DELETE", "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if data != want {
		t.Errorf("expected prior stats %+v, got %+v", want, data)
	}

	// ... and the next read is zeroed.
	w = do(t, ah, "GET", "/api/stats")
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if data != (wharf.StatsData{}) {
		t.Errorf("expected zeroed stats, got %+v", data)
	}
}

func TestAPIErrorsAreJSON(t *testing.T) {
	srv := newWharfServer(t)
	ah := admin.NewHandler(srv)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/nope", http.StatusNotFound},
		{"POST", "/api/status", http.StatusMethodNotAllowed},
		{"POST", "/api/stats", http.StatusMethodNotAllowed},
	}
	for _, test := range tests {
		w := do(t, ah, test.method, test.path)
		if w.Code != test.status {
			t.Errorf("%s %s: expected status %d, got %d", test.method, test.path, test.status, w.Code)
			continue
		}
		if ctype := w.Result().Header.Get("Content-Type"); !strings.HasPrefix(ctype, "application/json") {
			t.Errorf("%s %s: expected a JSON content type, got %q", test.method, test.path, ctype)
			continue
		}
		var aerr admin.APIError
		if err := json.NewDecoder(w.Body).Decode(&aerr); err != nil {
			t.Errorf("%s %s: decoding error body: %v", test.method, test.path, err)
			continue
		}
		if aerr.Type != admin.APIErrorType("bad_request_error") {
			t.Errorf("%s %s: expected error type %q, got %q", test.method, test.path, "bad_request_error", aerr.Type)
		}
		if aerr.Msg == "" {
			t.Errorf("%s %s: expected a message", test.method, test.path)
		}
	}
}

func TestEventsStream(t *testing.T) {
	srv := newWharfServer(t)
	ah := admin.NewHandler(srv)
	static := srv.Handler(nil)

	ts := httptest.NewServer(ah)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	// Keep serving until the subscription is live and an event lands.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				do(t, static, "GET", "/")
				time.Sleep(50 * time.Millisecond)
			}
		}
	}()

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event admin.Event
	if err := ws.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.Type != admin.EventTypeFileServe {
		t.Fatalf("expected event type %d, got %d", admin.EventTypeFileServe, event.Type)
	}
	fse, ok := event.Resource.(*admin.FileServeEvent)
	if !ok {
		t.Fatalf("expected a FileServeEvent resource, got %T", event.Resource)
	}
	if fse.Path != "/" || fse.Status != http.StatusOK {
		t.Errorf("expected a 200 for /, got %d for %s", fse.Status, fse.Path)
	}
	if fse.Bytes != len("<html>hi</html>") {
		t.Errorf("expected %d bytes, got %d", len("<html>hi</html>"), fse.Bytes)
	}
}

func TestEventUnmarshalJSON(t *testing.T) {
	in := admin.Event{
		Type:     admin.EventTypeFileServe,
		Resource: &admin.FileServeEvent{Path: "/app.js", Status: 200, Bytes: 42},
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out admin.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	fse, ok := out.Resource.(*admin.FileServeEvent)
	if !ok {
		t.Fatalf("expected a FileServeEvent resource, got %T", out.Resource)
	}
	if *fse != (admin.FileServeEvent{Path: "/app.js", Status: 200, Bytes: 42}) {
		t.Errorf("unexpected event resource: %+v", fse)
	}
}
