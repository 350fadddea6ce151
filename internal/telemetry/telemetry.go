package telemetry

import (
	"fmt"
	"sync"
)

// API is an abstraction over logging/metrics.
// Scrapers report silent degradation (selectors that stopped matching,
// pages that failed to load) through it so tests can assert on it.
// Params are alternating key/value pairs, the same as log/slog arguments.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that has broken in a way that should be addressed
	ReportBroken(id string, params ...any)

	// ReportWarning reports a scenario that does not necessarily indicate brokenness, but may be subject to investigation
	ReportWarning(id string, params ...any)

	// ReportCount reports the current count of a specific event at the current time, these counts should
	// not be summed but interpreted as points of data over time.
	ReportCount(id string, count int64)
}

// ScopedAPI is a telemetry API that attaches a namespace for a given API, kind of like creating a
// "sub" logger using things like log.New(), in which you can define the prefix for the logs.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s:%s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s:%s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s:%s", s.namespace, id), count)
}

// Event is one call captured by Recorder.
type Event struct {
	Kind   string
	ID     string
	Params []any
	Count  int64
}

// Param looks up the value recorded under key.
func (e Event) Param(key string) (any, bool) {
	for i := 0; i+1 < len(e.Params); i += 2 {
		if e.Params[i] == key {
			return e.Params[i+1], true
		}
	}
	return nil, false
}

// Recorder keeps every report in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Event{Kind: "broken", ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Event{Kind: "warning", ID: id, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Event{Kind: "count", ID: id, Count: count})
}

// Events returns a copy of the recorded events, optionally filtered by kind.
func (r *Recorder) Events(kind string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Counts returns the last reported value per count id.
func (r *Recorder) Counts() map[string]int64 {
	out := map[string]int64{}
	for _, e := range r.Events("count") {
		out[e.ID] = e.Count
	}
	return out
}
