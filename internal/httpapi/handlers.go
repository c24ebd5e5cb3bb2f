// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/hudumia/hudumia/internal/auth"
	"github.com/hudumia/hudumia/internal/observability"
)

// AuthService is the slice of the credential service the API needs.
type AuthService interface {
	SignUp(ctx context.Context, params auth.SignUpParams) (*auth.SignUpResult, error)
	SignIn(ctx context.Context, identifier, password, code string) (*auth.SignInResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (*auth.Doctor, error)
}

// Handler serves the credential endpoints.
type Handler struct {
	svc     AuthService
	metrics *observability.Metrics
}

// NewHandler creates the API handler.
func NewHandler(svc AuthService, metrics *observability.Metrics) *Handler {
	return &Handler{svc: svc, metrics: metrics}
}

// maxRequestBody bounds request bodies. Every payload here is a small
// JSON document, so anything near the cap is garbage.
const maxRequestBody = 1 << 20

// decode reads a JSON request body. A body that fails to parse, or
// exceeds maxRequestBody, is a client error reported with the same
// code as service-level validation failures.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Code("AUTH_INVALID_INPUT").With("operation", "decode request body").Wrap(err)
	}
	return nil
}

type signUpRequest struct {
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type signUpResponse struct {
	DoctorID string `json:"doctor_id"`
	Email    string `json:"email"`
	QRCode   string `json:"qr_code"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(w, r, &req); err != nil {
		h.metrics.SignUpsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	result, err := h.svc.SignUp(r.Context(), auth.SignUpParams{
		FirstName:   req.FirstName,
		SecondName:  req.SecondName,
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		h.metrics.SignUpsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	h.metrics.SignUpsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusCreated, signUpResponse{
		DoctorID: result.DoctorID,
		Email:    result.Email,
		QRCode:   result.QRDataURI,
	})
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Code       string `json:"code"`
}

type signInResponse struct {
	Token         string `json:"token,omitempty"`
	SetupRequired bool   `json:"setup_required,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(w, r, &req); err != nil {
		h.metrics.SignInsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	result, err := h.svc.SignIn(r.Context(), req.Identifier, req.Password, req.Code)
	if err != nil {
		h.metrics.SignInsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	if result.SetupRequired {
		h.metrics.SignInsTotal.WithLabelValues("setup_required").Inc()
		writeJSON(w, http.StatusOK, signInResponse{SetupRequired: true, QRCode: result.QRDataURI})
		return
	}

	h.metrics.SignInsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, signInResponse{Token: result.Token})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.metrics.PasswordResetsTotal.WithLabelValues("request", "failure").Inc()
		writeError(w, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.metrics.PasswordResetsTotal.WithLabelValues("request", "failure").Inc()
		writeError(w, err)
		return
	}

	// The same reply goes out whether or not the address is registered.
	h.metrics.PasswordResetsTotal.WithLabelValues("request", "success").Inc()
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "if the account exists, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.metrics.PasswordResetsTotal.WithLabelValues("confirm", "failure").Inc()
		writeError(w, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.metrics.PasswordResetsTotal.WithLabelValues("confirm", "failure").Inc()
		writeError(w, err)
		return
	}

	h.metrics.PasswordResetsTotal.WithLabelValues("confirm", "success").Inc()
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

type doctorResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	SecondName  string    `json:"second_name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleGetDoctor returns the authenticated doctor's profile. Credential
// material never appears in the response.
func (h *Handler) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, ok := DoctorFromContext(r.Context())
	if !ok {
		writeError(w, oops.Code("AUTH_UNAUTHORIZED").
			With("reason", "invalid doctor").
			Errorf("authorization required"))
		return
	}

	writeJSON(w, http.StatusOK, doctorResponse{
		ID:          doctor.ID.String(),
		FirstName:   doctor.FirstName,
		SecondName:  doctor.SecondName,
		Username:    doctor.Username,
		Email:       doctor.Email,
		PhoneNumber: doctor.PhoneNumber,
		CreatedAt:   doctor.CreatedAt,
	})
}
