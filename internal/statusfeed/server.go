// Package statusfeed publishes the viewer's load status over HTTP and
// websocket so a browser UI can show loading, error and retry states.
package statusfeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/logger"
	"github.com/Faultbox/terraview/internal/viewer"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
)

// Viewer is the part of the host the feed needs. *viewer.Host implements it.
type Viewer interface {
	Snapshot() viewer.Snapshot
	Subscribe() (<-chan viewer.Snapshot, func())
	RequestLoad(req loader.Request) error
	RequestRetry() error
}

// Server serves GET /status, GET /ws, POST /retry and POST /load.
type Server struct {
	viewer   Viewer
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// New creates a feed for v.
func New(v Viewer) *Server {
	s := &Server{
		viewer: v,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /retry", s.handleRetry)
	s.mux.HandleFunc("POST /load", s.handleLoad)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("status feed listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewMessage(s.viewer.Snapshot()))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.viewer.RequestRetry(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loader.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req.ModelURL = strings.TrimSpace(req.ModelURL)
	if req.ModelURL == "" {
		writeError(w, http.StatusBadRequest, errors.New("modelUrl is required"))
		return
	}
	if req.Kind == "" {
		if kind, ok := loader.KindFromPath(req.ModelURL); ok {
			req.Kind = kind
		}
	}
	kind, err := loader.ParseKind(string(req.Kind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Kind = kind

	if err := s.viewer.RequestLoad(req); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	logger.Info("load requested over status feed", zap.String("request", req.String()))
	w.WriteHeader(http.StatusAccepted)
}

// handleWebSocket streams every snapshot, starting with the current one.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.viewer.Subscribe()
	defer unsubscribe()

	// Reading is only for noticing the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "viewer closed"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(NewMessage(snap)); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-closed:
			logger.Debug("websocket client disconnected", zap.String("remote", r.RemoteAddr))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
