package wharf

import (
	"net/http"
	"sync"
	"time"
)

// StatsData is a snapshot of the serve counters.
type StatsData struct {
	Requests uint64 `json:"requests"`
	Served   uint64 `json:"served"`
	NotFound uint64 `json:"not_found"`
	Errors   uint64 `json:"errors"`
	Bytes    uint64 `json:"bytes"`
}

// Stats counts the responses written by a Server.
type Stats struct {
	mu      sync.Mutex
	started time.Time
	data    StatsData
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (st *Stats) Record(status, bytes int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.data.Requests++
	st.data.Bytes += uint64(bytes)
	switch {
	case status == http.StatusNotFound:
		st.data.NotFound++
	case status >= 500:
		st.data.Errors++
	case status >= 200 && status < 300:
		st.data.Served++
	}
}

func (st *Stats) Snapshot() StatsData {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.data
}

// Reset zeroes the counters and returns the snapshot taken just
// before the reset.
func (st *Stats) Reset() StatsData {
	st.mu.Lock()
	defer st.mu.Unlock()
	data := st.data
	st.data = StatsData{}
	return data
}

// Started returns the time the counters began counting.
func (st *Stats) Started() time.Time {
	return st.started
}
