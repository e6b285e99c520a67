// Package signald is a local stand-in for the signal-computation service,
// close enough to exercise the bridge end to end: it accepts the encoded
// payload on /signal and answers with a fixed HOLD decision.
package signald

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Decision mirrors the response schema of the real service.
type Decision struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Entry      float64 `json:"entry"`
	SL         float64 `json:"sl"`
	TP1        float64 `json:"tp1"`
	TP2        float64 `json:"tp2"`
	TP3        float64 `json:"tp3"`
	TP1Percent float64 `json:"tp1_percent"`
	TP2Percent float64 `json:"tp2_percent"`
	TP3Percent float64 `json:"tp3_percent"`
	Reason     string  `json:"reason"`
}

// Server serves the stub endpoints.
type Server struct {
	port int
	log  zerolog.Logger
}

// New builds a stub server listening on port when Run.
func New(port int, log zerolog.Logger) *Server {
	return &Server{port: port, log: log}
}

// Handler returns the stub's routing, usable directly in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/signal", s.signalHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/", s.rootHandler)
	return mux
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) signalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var req struct {
		Symbol    string            `json:"symbol"`
		Timeframe string            `json:"timeframe"`
		Data      []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "body is not a signal request", http.StatusUnprocessableEntity)
		return
	}
	s.log.Info().
		Str("symbol", req.Symbol).
		Str("timeframe", req.Timeframe).
		Int("bars", len(req.Data)).
		Msg("signal request")

	writeJSON(w, Decision{
		Signal:     "HOLD",
		Confidence: 0.5,
		Reason:     "stub decision",
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{
		"service": "signal stub",
		"signal":  "/signal",
		"health":  "/health",
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
