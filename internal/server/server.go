// Package server exposes the question-answering pipeline over HTTP for the
// frontend: a fixed demo question list, the gated /ask endpoint, and a few
// maintenance paths.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"cvrag/internal/llm"
	"cvrag/internal/log"
	"cvrag/internal/rag"
	"cvrag/internal/rag/retriever"
	"cvrag/internal/vectorstore"
)

// Service is the question-answering capability the API exposes.
type Service interface {
	Ask(ctx context.Context, question string) (*rag.Response, error)
	Preview(ctx context.Context, question string, k int) (*retriever.Result, error)
}

// Ingester re-populates the vector store on demand.
type Ingester interface {
	Run(ctx context.Context, dir string) (int, error)
}

// Options carries the request-independent API configuration.
type Options struct {
	Questions []string
	Origins   []string
	RateRPS   float64 // 0 disables rate limiting
	DataDir   string
}

type API struct {
	svc      Service
	ingester Ingester
	opts     Options
	lg       *log.Logger
}

func NewAPI(svc Service, ing Ingester, opts Options, lg *log.Logger) *API {
	if lg == nil {
		lg = log.New()
	}
	return &API{svc: svc, ingester: ing, opts: opts, lg: lg}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(a.logRequests)
	if a.opts.RateRPS > 0 {
		r.Use(rateLimit(a.opts.RateRPS))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.opts.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/questions", a.handleQuestions)
	r.Post("/ask", a.handleAsk)
	r.Get("/search", a.handleSearch)
	r.Post("/ingest", a.handleIngest)
	return r
}

func (a *API) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": a.opts.Questions})
}

func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question required")
		return
	}
	resp, err := a.svc.Ask(r.Context(), req.Question)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSearch is the inspection path: raw nearest neighbors with distances,
// no confidence gate, no generation.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "q required")
		return
	}
	res, err := a.svc.Preview(r.Context(), q, rag.PreviewK)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	type hit struct {
		Source   string  `json:"source"`
		Distance float64 `json:"distance"`
		Preview  string  `json:"preview"`
	}
	hits := make([]hit, 0, len(res.Documents))
	for i := range res.Documents {
		hits = append(hits, hit{
			Source:   res.Sources[i]["source"],
			Distance: res.Distances[i],
			Preview:  preview(res.Documents[i], 300),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits, "confidence": res.Confidence})
}

func (a *API) handleIngest(w http.ResponseWriter, r *http.Request) {
	if a.ingester == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest_disabled", "no ingester configured")
		return
	}
	count, err := a.ingester.Run(r.Context(), a.opts.DataDir)
	if err != nil {
		a.lg.Error("ingest.failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "ingest_failed", "")
		return
	}
	a.lg.Info("ingest.done", "count", count)
	writeJSON(w, http.StatusOK, map[string]any{"ingested": count})
}

func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	a.lg.Error("request.failed", "path", r.URL.Path, "error", err.Error())
	var svcErr *llm.ServiceError
	if errors.As(err, &svcErr) {
		writeError(w, http.StatusBadGateway, "provider_error", svcErr.Op+" provider failed")
		return
	}
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		writeError(w, http.StatusInternalServerError, "store_error", "collection not found; run ingestion first")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "")
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, errStr, message string) {
	writeJSON(w, status, apiError{Error: errStr, Message: message, Code: status})
}

// Run serves handler on addr until SIGINT/SIGTERM, then shuts down with a
// short grace period.
func Run(addr string, handler http.Handler, lg *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		lg.Info("server.listen", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		lg.Info("server.shutdown", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
