package ecsprojectionserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
)

// WireEvent is one projection result as published to subscribers: the
// tagged Loading|Ok|Error variant flattened into a status string plus
// an optional value or error message. Halt results are never
// published (spec §4.6: a projection's OnChange never fires for Halt).
type WireEvent struct {
	Status string `json:"status"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server streams projection results over HTTP. Zero value is not
// ready for use; construct with NewServer.
type Server struct {
	mu   sync.Mutex
	hubs map[string]*hub
	mux  *http.ServeMux
}

// NewServer builds a Server ready to accept Publish calls and serve
// GET /projections/{name}/stream requests.
func NewServer() *Server {
	s := &Server{hubs: make(map[string]*hub)}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/projections/", s.handleStream)
	return s
}

// Handler returns the http.Handler to mount, directly or behind a
// reverse proxy.
func (s *Server) Handler() http.Handler { return s.mux }

// Publish marshals event and fans it out to every subscriber currently
// streaming projection name, creating name's hub on first use.
func (s *Server) Publish(name string, event WireEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ecsprojectionserver: marshal event for %q: %w", name, err)
	}
	s.hubFor(name).publish(data)
	return nil
}

func (s *Server) hubFor(name string) *hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[name]
	if !ok {
		h = newHub()
		s.hubs[name] = h
	}
	return h
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name, ok := parseStreamPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.hubFor(name).subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case data, open := <-ch:
			if !open {
				return
			}
			if _, err := w.Write(append(data, '\n')); err != nil {
				ecslog.WithComponent("ecsprojectionserver").Debug().Err(err).Str("projection", name).Msg("subscriber write failed")
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func parseStreamPath(path string) (name string, ok bool) {
	const prefix = "/projections/"
	const suffix = "/stream"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	name = strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if name == "" {
		return "", false
	}
	return name, true
}

// Run serves Handler on addr until ctx is canceled, then shuts down
// gracefully with a bounded timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
