// Package formutil decodes JSON request bodies for the API handlers.
//
// Bodies are size-limited, must be a single JSON object and may not carry
// unknown fields, so a typo in a field name is a 400 rather than a silent
// no-op.
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmptyBody is returned when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// BadRequest is a decode failure whose message is safe to show the client.
type BadRequest struct {
	Msg string
}

func (e *BadRequest) Error() string { return e.Msg }

// DecodeJSON reads at most limit bytes from r.Body into dst.
// All failures are *BadRequest.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return &BadRequest{Msg: "Content-Type must be application/json"}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return &BadRequest{Msg: ErrEmptyBody.Error()}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &BadRequest{Msg: describe(err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &BadRequest{Msg: "request body must contain a single JSON object"}
	}
	return nil
}

func describe(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return ErrEmptyBody.Error()
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "request body contains badly-formed JSON"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("request body contains badly-formed JSON (at position %d)", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
		}
		return "request body has the wrong type"
	case errors.As(err, &maxErr):
		return fmt.Sprintf("request body must not be larger than %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "request body contains unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "request body could not be decoded"
	}
}
