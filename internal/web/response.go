// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// Envelope is the uniform JSON response shape for every API endpoint.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Code    string       `json:"code,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Respond writes a success envelope with the given status and data.
func Respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope with a message and optional data.
func RespondMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// RespondError translates err into the envelope. Untyped errors are treated
// as Internal: logged with the request context, message suppressed unless
// dev mode is enabled via SetDevMode.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := FromStore(err)

	if apiErr.Status == http.StatusInternalServerError {
		slog.Error("internal error",
			"error", apiErr.Error(),
			"method", r.Method,
			"path", r.URL.Path,
		)
		if devMode {
			apiErr = &Error{Status: apiErr.Status, Code: apiErr.Code, Message: apiErr.Error()}
		}
	}

	if apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(apiErr.RetryAfter))
	}

	writeJSON(w, apiErr.Status, Envelope{
		Success: false,
		Message: apiErr.Message,
		Code:    apiErr.Code,
		Errors:  apiErr.Fields,
	})
}

// devMode controls whether internal error details reach API responses.
var devMode bool

// SetDevMode enables verbose internal error messages. Call once at startup.
func SetDevMode(enabled bool) { devMode = enabled }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Bind decodes a JSON request body into dst. Unknown fields are ignored.
func Bind(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ValidationMsg("Invalid JSON body.")
	}
	return nil
}
