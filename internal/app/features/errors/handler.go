// internal/app/features/errors/handler.go
package errors

import (
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/system/respond"
)

// Handler serves the router-level fallbacks.
// No DB needed; it only writes envelopes.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
