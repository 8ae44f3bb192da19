// Package httpx holds the JSON request/response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

func WriteJSON(w http.ResponseWriter, log logger.ZapLogger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, log logger.ZapLogger, statusCode int, message string) {
	WriteJSON(w, log, statusCode, map[string]string{"error": message})
}

// WriteDomainError maps the domain error taxonomy onto HTTP status codes.
func WriteDomainError(w http.ResponseWriter, log logger.ZapLogger, err error) {
	statusCode := StatusFor(err)
	if statusCode == http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		WriteError(w, log, statusCode, "internal error")
		return
	}
	WriteError(w, log, statusCode, err.Error())
}

func StatusFor(err error) int {
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, model.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses a JSON body into target, rejecting unknown fields.
func Decode(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// QueryInt reads an integer query parameter, falling back to def when it is absent
// or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
