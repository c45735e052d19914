package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/core/report/parser"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handlers provides the HTTP handlers for the report API.
type Handlers struct {
	reports Reports
	health  Pinger
	metrics MetricsSource
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(reports Reports, health Pinger, metrics MetricsSource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		reports: reports,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
}

// dataResponse wraps report rows.
type dataResponse struct {
	Data []domain.Row `json:"data"`
}

// Health pings the database.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": "no database configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Query runs a report from a JSON request body.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	h.runReport(w, r, req)
}

// QueryParams runs a report described by query parameters.
func (h *Handlers) QueryParams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	include, _ := strconv.ParseBool(q.Get("include_relations"))

	req, err := parser.Args{
		Table:            q.Get("table"),
		Columns:          q["columns"],
		IncludeRelations: include,
		Filters:          q["filter"],
		Sorts:            q["sort"],
		Relations:        q["relation"],
	}.Request()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.runReport(w, r, req)
}

func (h *Handlers) runReport(w http.ResponseWriter, r *http.Request, req domain.Request) {
	if !strict(r) {
		writeJSON(w, http.StatusOK, dataResponse{Data: h.reports.Run(r.Context(), req)})
		return
	}

	rows, err := h.reports.Query(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rows})
}

// Explain returns the compiled plan for a JSON request body.
func (h *Handlers) Explain(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	exp, err := h.reports.Explain(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// ListTemplates lists saved template names.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := h.reports.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": names})
}

// GetTemplate returns one template.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.reports.LoadTemplate(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// PutTemplate saves a template. The path name wins over any name in the
// body.
func (h *Handlers) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl domain.Template
	if err := decodeBody(r, &tmpl); err != nil {
		h.writeError(w, err)
		return
	}
	tmpl.Name = chi.URLParam(r, "name")

	if err := h.reports.SaveTemplate(r.Context(), &tmpl); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &tmpl)
}

// DeleteTemplate deletes a template.
func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.DeleteTemplate(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunTemplate runs a template with overrides from the body. An empty body
// means no overrides.
func (h *Handlers) RunTemplate(w http.ResponseWriter, r *http.Request) {
	var overrides domain.Overrides
	if err := decodeBody(r, &overrides); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, err)
		return
	}

	rows, err := h.reports.RunTemplate(r.Context(), chi.URLParam(r, "name"), overrides, strict(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rows})
}

// Table returns the columns and foreign keys of a table.
func (h *Handlers) Table(w http.ResponseWriter, r *http.Request) {
	meta, err := h.reports.Relations(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Metrics returns the telemetry snapshot.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "metrics are disabled"})
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func strict(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	return v
}

// errBadBody marks undecodable request bodies.
var errBadBody = errors.New("invalid request body")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}
