// Package server exposes the reconciliation dashboard as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/budgetrecon/internal/classify"
	"github.com/theirongolddev/budgetrecon/internal/dashboard"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

// UserHeader carries the caller's identity, set by the fronting proxy.
const UserHeader = "X-User"

const maxBodySize = 4 << 20

// Config controls the server runtime.
type Config struct {
	Addr string
}

// Server serves the dashboard API.
type Server struct {
	cfg       Config
	dash      *dashboard.Service
	log       zerolog.Logger
	startedAt time.Time
}

// New returns a server over dash.
func New(cfg Config, dash *dashboard.Service, log zerolog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	return &Server{cfg: cfg, dash: dash, log: log, startedAt: time.Now()}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/report", s.handleReport)
	mux.HandleFunc("GET /v1/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/transactions", s.handleTransactions)
	mux.HandleFunc("GET /v1/budget", s.handleBudget)
	mux.HandleFunc("GET /v1/files", s.handleFiles)
	mux.HandleFunc("GET /v1/classifications", s.handleGetClassifications)
	mux.HandleFunc("PUT /v1/classifications", s.handlePutClassifications)
	return recovery(s.log)(requestLogger(s.log)(mux))
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("serving dashboard API")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.dash.Report(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dash.Summary(r.Context(), r.Header.Get(UserHeader))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, drops, err := s.dash.Transactions(r.Context(), q.Get("category"), q.Get("subcategory"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.ExpenseTransaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
		"drops":        drops,
	})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	f, table, err := s.dash.Budget(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":   f,
		"header": table.Header,
		"rows":   table.Rows,
	})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.dash.ListFiles(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if files == nil {
		files = []model.UploadedFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (s *Server) handleGetClassifications(w http.ResponseWriter, r *http.Request) {
	cl, err := s.dash.Classifications(r.Context(), r.Header.Get(UserHeader))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if cl.Entries == nil {
		cl.Entries = []model.ClassificationEntry{}
	}
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(cl.Version, 10)))
	writeJSON(w, http.StatusOK, cl)
}

type putClassificationsRequest struct {
	Entries []model.ClassificationEntry `json:"entries"`
}

func (s *Server) handlePutClassifications(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.Header.Get(UserHeader))
	if user == "" {
		writeError(w, http.StatusUnauthorized, UserHeader+" header is required")
		return
	}
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req putClassificationsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.dash.SaveClassifications(r.Context(), user, req.Entries, expected)
	if err != nil {
		s.writeSaveErr(w, r, err, res)
		return
	}
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(res.Version, 10)))
	writeJSON(w, http.StatusOK, res)
}

// parseIfMatch reads an optional quoted version. Absent means no check.
func parseIfMatch(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return -1, nil
	}
	if unq, err := strconv.Unquote(v); err == nil {
		v = unq
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid If-Match version %q", v)
	}
	return n, nil
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrVersionConflict):
		return http.StatusPreconditionFailed
	case errors.Is(err, model.ErrNoActiveBudget), errors.Is(err, model.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotUploader):
		return http.StatusForbidden
	case model.IsValidation(err), model.IsSchema(err):
		return http.StatusUnprocessableEntity
	case model.IsBoundary(err):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) logErr(r *http.Request, status int, err error) {
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logErr(r, status, err)
	writeError(w, status, err.Error())
}

func (s *Server) writeSaveErr(w http.ResponseWriter, r *http.Request, err error, res classify.SaveResult) {
	status := statusFor(err)
	s.logErr(r, status, err)
	writeJSON(w, status, map[string]any{
		"error":    err.Error(),
		"rejected": res.Rejected,
	})
}
