// Package api provides HTTP handlers for the InsurX portal.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/insurx/insurx-web/internal/observability"
	"github.com/insurx/insurx-web/internal/session"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const msgInvalidBody = "Invalid request body."

// Handler provides common handler utilities.
type Handler struct {
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewHandler creates a new Handler with common dependencies. metrics may be nil.
func NewHandler(sessions *session.Manager, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, metrics: metrics, logger: logger}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody reads a JSON body of at most maxBodyBytes into v. On failure it
// writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := readObject(json.NewDecoder(r.Body))
	if err == nil {
		err = json.Unmarshal(raw, v)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return false
		}
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

var (
	errNotObject    = errors.New("body is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// readObject reads exactly one JSON object from dec.
func readObject(dec *json.Decoder) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, errNotObject
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return raw, nil
	case err != nil:
		return nil, err
	default:
		return nil, errTrailingData
	}
}

// fields is a loosely typed JSON object.
type fields map[string]any

// str returns the trimmed string value of key. Missing and non-string
// values yield "".
func (f fields) str(key string) string {
	s, ok := f[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func (h *Handler) countGeneration(endpoint, outcome string) {
	if h.metrics != nil {
		h.metrics.Generations.WithLabelValues(endpoint, outcome).Inc()
	}
}

func (h *Handler) countPayment(operation, outcome string) {
	if h.metrics != nil {
		h.metrics.Payments.WithLabelValues(operation, outcome).Inc()
	}
}
