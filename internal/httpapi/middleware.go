// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/hudumia/hudumia/internal/auth"
	"github.com/hudumia/hudumia/internal/observability"
)

// ctxKey is unexported so only this package can store request values.
type ctxKey int

const doctorKey ctxKey = iota

// DoctorFromContext returns the authenticated doctor set by RequireAuth.
func DoctorFromContext(ctx context.Context) (*auth.Doctor, bool) {
	doctor, ok := ctx.Value(doctorKey).(*auth.Doctor)
	return doctor, ok
}

// RequireAuth rejects requests without a valid Bearer session token and
// stores the authenticated doctor on the request context.
func RequireAuth(svc AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, oops.Code("AUTH_UNAUTHORIZED").
					With("reason", "no token").
					Errorf("authorization required"))
				return
			}

			doctor, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), doctorKey, doctor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// countRequests records per-route request totals once the response is
// written. The chi route pattern is used instead of the raw path so that
// metrics stay low-cardinality.
func countRequests(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		})
	}
}
