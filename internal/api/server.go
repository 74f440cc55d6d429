// Package api exposes the remote-control HTTP surface: the four trading
// intents, symbol switching and read-only snapshots. It is a thin adapter
// over the engine's public command interface; commands are accepted and
// queued, never executed inline.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"trader_go/internal/engine"
	"trader_go/internal/infra"

	"github.com/gorilla/mux"
)

// Server holds the HTTP server and the trading engine it drives.
type Server struct {
	engine  *engine.Engine
	metrics *infra.Metrics
	router  *mux.Router
	http    *http.Server
}

// NewServer creates the remote-control server.
func NewServer(eng *engine.Engine, metrics *infra.Metrics) *Server {
	s := &Server{
		engine:  eng,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/commands/open", s.handleOpen).Methods("POST")
	api.HandleFunc("/commands/add", s.handleAdd).Methods("POST")
	api.HandleFunc("/commands/close", s.handleClose).Methods("POST")
	api.HandleFunc("/commands/cancel-all", s.handleCancelAll).Methods("POST")
	api.HandleFunc("/symbol", s.handleSetSymbol).Methods("PUT")
	api.HandleFunc("/symbol", s.handleGetSymbol).Methods("GET")
	api.HandleFunc("/position", s.handleGetPosition).Methods("GET")
	api.HandleFunc("/orders", s.handleGetOrders).Methods("GET")
	api.HandleFunc("/quote", s.handleGetQuote).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP listener until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// PercentageRequest is the JSON body for the sizing commands.
type PercentageRequest struct {
	Percentage int `json:"percentage"`
}

// SymbolRequest is the JSON body for symbol switching.
type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	pct, ok := s.decodePercentage(w, r)
	if !ok {
		return
	}
	s.engine.OpenPosition(pct)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	pct, ok := s.decodePercentage(w, r)
	if !ok {
		return
	}
	s.engine.AddToPosition(pct)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	pct, ok := s.decodePercentage(w, r)
	if !ok {
		return
	}
	s.engine.ClosePosition(pct)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	s.engine.CancelAllOrders()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleSetSymbol(w http.ResponseWriter, r *http.Request) {
	var req SymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	s.engine.SetSymbol(req.Symbol)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleGetSymbol(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"symbol": s.engine.Symbol()})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Position())
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Orders())
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Quote())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"gateway_connected": s.engine.IsConnected(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) decodePercentage(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req PercentageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return 0, false
	}
	if req.Percentage < 1 || req.Percentage > 100 {
		respondError(w, http.StatusBadRequest, "percentage must be between 1 and 100")
		return 0, false
	}
	return req.Percentage, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
