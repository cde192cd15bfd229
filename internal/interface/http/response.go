package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError describes a failed request. Fields carries per-field
// validation messages.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSONWithMeta(w, r, status, data, nil)
}

func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *ResponseMeta) {
	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	encode(w, r, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	encode(w, r, status, JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message, Fields: fields},
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: requestIDFrom(r.Context()),
	})
}

func encode(w http.ResponseWriter, r *http.Request, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", logger.Err(err))
	}
}

// writeError maps a domain error kind to its HTTP status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *shared.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", "Request validation failed", verr.Fields)
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", errorMessage(err), nil)
	case shared.IsForbidden(err):
		writeJSONError(w, r, http.StatusForbidden, "forbidden", errorMessage(err), nil)
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", errorMessage(err), nil)
	case shared.IsAlreadyPaired(err):
		writeJSONError(w, r, http.StatusConflict, "already_paired", errorMessage(err), nil)
	case shared.IsInvalidTransition(err):
		writeJSONError(w, r, http.StatusConflict, "invalid_transition", errorMessage(err), nil)
	case shared.IsRetryable(err):
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "Storage is temporarily unavailable", nil)
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Err(err), logger.String("path", r.URL.Path))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred", nil)
	}
}

// errorMessage prefers the human-readable message of a DomainError.
func errorMessage(err error) string {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return err.Error()
}

// decodeJSON reads a single JSON object from the request body.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return s.decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func (s *Server) decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return s.decodeBody(w, r, dst, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) error {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && optional:
			return nil
		case errors.Is(err, io.EOF):
			return shared.NewValidationError("body", "must not be empty")
		case errors.As(err, &maxErr):
			return shared.NewValidationError("body", fmt.Sprintf("must not exceed %d bytes", maxErr.Limit))
		default:
			return shared.NewValidationError("body", "malformed JSON: "+err.Error())
		}
	}
	if dec.More() {
		return shared.NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.NewValidationError(key, "must be an integer")
	}
	return v, nil
}
