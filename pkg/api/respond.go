package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/task"
)

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	if errors.IsValidation(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeQueueFull, errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTaskInFlight:
		return http.StatusConflict
	case errors.ErrCodeExternalTool:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeContent(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// notFound converts store misses into NOT_FOUND errors.
func notFound(err error, id string) error {
	if stderrors.Is(err, task.ErrNotFound) {
		return errors.New(errors.ErrCodeNotFound, "task %s not found", id)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "load task %s", id)
}
