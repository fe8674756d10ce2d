// Package respond writes JSON response envelopes.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as the response body with the given status.
// Encoding errors are ignored once the header is out.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// OK writes {"ok": true}.
func OK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
