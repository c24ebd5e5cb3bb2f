// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusForCode maps service error codes to HTTP status codes. Codes not
// listed here are treated as internal errors.
var statusForCode = map[string]int{
	"AUTH_INVALID_INPUT":         http.StatusBadRequest,
	"AUTH_EMPTY_PASSWORD":        http.StatusBadRequest,
	"AUTH_CONFLICT":              http.StatusBadRequest,
	"RESET_TOKEN_INVALID":        http.StatusBadRequest,
	"AUTH_INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"AUTH_INVALID_SECOND_FACTOR": http.StatusUnauthorized,
	"AUTH_ACCOUNT_LOCKED":        http.StatusUnauthorized,
	"AUTH_UNAUTHORIZED":          http.StatusUnauthorized,
	"AUTH_TOKEN_INVALID":         http.StatusUnauthorized,
	"AUTH_TOKEN_EXPIRED":         http.StatusUnauthorized,
	"CONFIG_INVALID":             http.StatusInternalServerError,
}

// writeError renders err as JSON. Internal errors are logged with full
// context but surface to the client as a generic message so that storage
// and mail details never leak.
func writeError(w http.ResponseWriter, err error) {
	code := ""
	if oopsErr, ok := oops.AsOops(err); ok {
		if s, ok := oopsErr.Code().(string); ok {
			code = s
		}
	}

	status, known := statusForCode[code]
	if !known {
		status = http.StatusInternalServerError
	}

	body := errorResponse{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "error", err)
		body = errorResponse{Error: "internal server error", Code: code}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
