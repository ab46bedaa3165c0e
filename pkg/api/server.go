// Package api exposes the session core over a local HTTP surface: the
// harness the mobile shell and integration tests drive. It is diagnostic
// plumbing, not a public API.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/directory"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/fintech"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/gateway"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/history"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server serves the session state and history over HTTP.
type Server struct {
	session *directory.Session
	fetcher *history.Fetcher
	server  *http.Server
	logger  *logging.Logger
	config  ServerConfig
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// MetricsHandler, when set, is mounted at /metrics (Prometheus).
	MetricsHandler http.Handler
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}
}

// NewServer creates the API server.
func NewServer(session *directory.Session, fetcher *history.Fetcher, config ServerConfig) *Server {
	s := &Server{
		session: session,
		fetcher: fetcher,
		logger:  logging.L().Named("api"),
		config:  config,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	r.HandleFunc("/session/select", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/session/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	if config.MetricsHandler != nil {
		r.Handle("/metrics", config.MetricsHandler).Methods(http.MethodGet)
	}

	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the route handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var acct fintech.Account
	if err := json.NewDecoder(r.Body).Decode(&acct); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account payload")
		return
	}
	if acct.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "account_number is required")
		return
	}

	s.session.SelectAccount(r.Context(), acct)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.session.Resolve(r.Context(), directory.ResolveOptions{})
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := history.Options{
		CustomerID:    q.Get("customer_id"),
		AccountNumber: q.Get("account_number"),
		FromDate:      q.Get("from_date"),
		ToDate:        q.Get("to_date"),
		Reference:     q.Get("reference"),
	}
	opts.Limit = intParam(q.Get("limit"))
	opts.Offset = intParam(q.Get("offset"))

	if opts.CustomerID == "" {
		// Default to the selected account so the screen needs no
		// plumbing of its own.
		selected := s.session.Snapshot().Selected
		opts.CustomerID = selected.CustomerID
		if opts.AccountNumber == "" {
			opts.AccountNumber = selected.AccountNumber
		}
	}

	result, err := s.fetcher.Fetch(r.Context(), opts)
	if err != nil {
		status := http.StatusBadGateway
		if err == history.ErrMissingCustomerID {
			status = http.StatusBadRequest
		}
		writeError(w, status, gateway.DisplayMessage(err))
		return
	}

	records := result.Transactions
	if note := q.Get("note"); note != "" {
		records = history.FilterByNote(records, note)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions":    encodeRecords(records),
		"current_balance": result.CurrentBalance,
	})
}

// encodeRecords renders records for display consumers: stable-ish keys,
// "N/A" dates, raw passthrough preserved.
func encodeRecords(records []fintech.TransactionRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		out = append(out, map[string]any{
			"key":          rec.Key(i),
			"date":         rec.DisplayDate(),
			"type":         rec.Type,
			"status":       rec.Status,
			"amount":       rec.Amount.String(),
			"balance":      rec.Balance.String(),
			"note":         rec.Note,
			"reference":    rec.Reference,
			"raw":          rec.Raw,
			"fees":         rec.InternalFeesAmount.String(),
			"history_id":   rec.HistoryID.String(),
			"display_date": rec.TransactionDate,
		})
	}
	return out
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
