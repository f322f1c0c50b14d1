package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/m-mizutani/parley/pkg/utils/logging"
)

// eventStream writes server-sent events. Headers are sent with the first
// event so that a request rejected before any event can still get a plain
// error status.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
	started bool
}

func newEventStream(w http.ResponseWriter, r *http.Request) *eventStream {
	flusher, _ := w.(http.Flusher)
	return &eventStream{w: w, r: r, flusher: flusher}
}

func (s *eventStream) send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		logging.From(s.r.Context()).Error("failed to marshal event", "error", err, "event", event)
		return
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	// the client may have gone away
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		logging.From(s.r.Context()).Debug("failed to write event", "error", err, "event", event)
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

func (s *eventStream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
