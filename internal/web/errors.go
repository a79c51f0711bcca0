package web

// errors.go turns handler errors into responses.
//
// Technical details are logged with the request ID; clients get the mapped
// core.UserMessage as JSON (API routes, Accept: application/json) or as an
// HTML page. The three plain-text upload rejections keep their exact bodies.

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cleaner/internal/codec"
	"github.com/JonMunkholm/cleaner/internal/core"
	"github.com/JonMunkholm/cleaner/internal/logging"
	"github.com/JonMunkholm/cleaner/internal/pipeline"
	"github.com/JonMunkholm/cleaner/internal/web/views"
	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a cleaning error.
func statusFor(err error) int {
	var (
		unsupported *codec.UnsupportedFormatError
		parseErr    *codec.ParseError
		collision   *pipeline.NameCollisionError
	)

	switch {
	case errors.Is(err, core.ErrMissingFile), errors.Is(err, core.ErrNoSelectedFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &collision):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondUploadError answers a failed form upload. Missing file, empty file
// name and unsupported format get their fixed plain-text bodies; everything
// else goes through respondError.
func (s *Server) respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *codec.UnsupportedFormatError

	switch {
	case errors.Is(err, core.ErrMissingFile):
		writePlain(w, http.StatusBadRequest, "No file part")
	case errors.Is(err, core.ErrNoSelectedFile):
		writePlain(w, http.StatusBadRequest, "No selected file")
	case errors.As(err, &unsupported):
		writePlain(w, http.StatusUnsupportedMediaType, "Unsupported file format")
	default:
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("upload rejected", "error", err)
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"code", userMsg.Code,
		"user_message", core.FormatUserError(err),
		"error", err.Error(),
	)
	// Mapped failures log at warn even with a 5xx status.
	if statusCode >= http.StatusInternalServerError && !core.IsUserFacing(err) {
		logger.Error("request error")
	} else {
		logger.Warn("request error")
	}

	if wantsJSON(r) {
		render.Status(r, statusCode)
		render.JSON(w, r, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = views.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
}

// writePlain writes body verbatim as text/plain, without a trailing newline.
func writePlain(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, body)
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
