package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
	"github.com/satishbabariya/reportql/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadBody), errors.Is(err, io.EOF), domain.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoDatabase), errors.Is(err, service.ErrNoMetadata):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
