// internal/app/system/respond/respond.go
//
// Package respond writes the admin API's JSON envelope. Every body carries
// "success" and, for failures, a "message" that is safe to show the caller.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/limits"
	"go.uber.org/zap"
)

// M is a response body. Keys other than success/message are endpoint specific.
type M map[string]any

// JSON writes body with status. success is derived from the status code when
// the body does not set it.
func JSON(w http.ResponseWriter, status int, body M) {
	if body == nil {
		body = M{}
	}
	if _, ok := body["success"]; !ok {
		body["success"] = status < 400
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, body M) {
	JSON(w, http.StatusOK, body)
}

// Fail writes a failure envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, M{"success": false, "message": msg})
}

// Error classifies err with apierr and writes the matching envelope.
// Internal failures are logged at error level with the request path; client
// errors at info.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apierr.HTTPStatus(err)
	msg := apierr.Message(err)
	if log != nil {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", apierr.KindOf(err).String()),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}
	}
	Fail(w, status, msg)
}

// Decode reads a JSON request body into v. A malformed or oversized body is
// a validation error; an empty body leaves v unchanged.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apierr.Validation("Invalid JSON body")
}
