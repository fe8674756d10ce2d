// internal/app/features/errors/errorlog.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/requestlog"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrorLogger writes JSON error envelopes and logs the cause.
// 4xx responses log at Info, 5xx at Error. The underlying error is never
// sent to the client.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := requestlog.ID(r.Context()); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogBadRequest responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Info(msg, e.fields(r, err)...)
	respond.Error(w, http.StatusBadRequest, userMsg)
}

// LogUnauthorized responds 401 with userMsg.
func (e *ErrorLogger) LogUnauthorized(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Info(msg, e.fields(r, nil)...)
	respond.Error(w, http.StatusUnauthorized, userMsg)
}

// LogForbidden responds 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Info(msg, e.fields(r, nil)...)
	respond.Error(w, http.StatusForbidden, userMsg)
}

// LogNotFound responds 404 with userMsg.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Debug(msg, e.fields(r, nil)...)
	respond.Error(w, http.StatusNotFound, userMsg)
}

// LogTooManyRequests responds 429 with userMsg.
func (e *ErrorLogger) LogTooManyRequests(w http.ResponseWriter, r *http.Request, msg string, userMsg string) {
	e.Log.Warn(msg, e.fields(r, nil)...)
	respond.Error(w, http.StatusTooManyRequests, userMsg)
}

// LogServerError responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	respond.Error(w, http.StatusInternalServerError, userMsg)
}

// LogStoreError maps a lookup error: mongo.ErrNoDocuments becomes 404
// with notFoundMsg, anything else a 500.
func (e *ErrorLogger) LogStoreError(w http.ResponseWriter, r *http.Request, msg string, err error, notFoundMsg string) {
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		e.LogNotFound(w, r, msg, notFoundMsg)
		return
	}
	e.LogServerError(w, r, msg, err, "A database error occurred.")
}

// LogDecodeError responds 400 for a formutil.DecodeJSON failure.
func (e *ErrorLogger) LogDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var br *formutil.BadRequest
	if stderrors.As(err, &br) {
		e.LogBadRequest(w, r, "decode request body failed", err, br.Msg)
		return
	}
	e.LogBadRequest(w, r, "decode request body failed", err, "Invalid request body.")
}
