// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/propcrest/bulletin-go/internal/auth"
	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/session"
	"github.com/propcrest/bulletin-go/internal/store"
	"github.com/propcrest/bulletin-go/internal/validator"
)

// AuthHandler serves signup, signin, and signout.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	svc             *bulletin.Service
	logger          *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(queries *store.Queries, sm *scs.SessionManager, lp *middleware.LoginProtection, svc *bulletin.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		queries:         queries,
		sessionManager:  sm,
		loginProtection: lp,
		svc:             svc,
		logger:          logger,
	}
}

// userPayload is the public shape of an account.
type userPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

// Signup serves POST /api/v1/auth/signup. Anyone may create an
// account; only allow-listed emails become administrators.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := validator.New()
	v.Check(validator.NotBlank(req.Name), "name", "must be provided")
	v.Check(validator.MaxChars(req.Name, 100), "name", "must be at most 100 characters")
	v.Check(validator.Matches(req.Email, validator.EmailRX), "email", "must be a valid email address")
	if err := auth.ValidatePassword(req.Password); err != nil {
		v.AddError("password", err.Error())
	}
	if !v.Valid() {
		WriteValidationError(w, v.Errors)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hashing password failed", "error", err)
		WriteInternalError(w, "Could not create account")
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// Unique constraint on email is the only expected failure.
		WriteError(w, http.StatusConflict, "email_taken", "An account with this email already exists", nil)
		return
	}

	h.logger.Info("account created", "category", "auth", "email", user.Email)
	WriteCreated(w, userPayload{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Admin: h.svc.Gate().Allowed(user.Email),
	})
}

// Signin serves POST /api/v1/auth/signin.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	if !h.loginProtection.AllowIP(clientIP(r)) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many sign-in attempts, slow down", nil)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if locked, remaining := h.loginProtection.IsLocked(req.Email); locked {
		h.logger.Warn("sign-in attempt on locked account", "category", "auth", "email", req.Email)
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Account locked, try again in %s", remaining.Round(time.Second)), nil)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("sign-in lookup failed", "error", err)
		}
		// Track failures for unknown emails too, so account existence
		// cannot be probed through lockout behavior.
		h.recordFailure(w, req.Email)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		h.logger.Warn("sign-in failed", "category", "auth", "email", req.Email)
		h.recordFailure(w, req.Email)
		return
	}

	h.loginProtection.RecordSuccess(req.Email)

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				h.logger.Error("password re-hash failed", "error", err, "user_id", user.ID)
			}
		}
	}

	// New token on privilege change blocks session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.logger.Error("session token renewal failed", "error", err)
		WriteInternalError(w, "Could not establish session")
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)
	h.sessionManager.Put(r.Context(), session.KeyUserName, user.Name)
	h.sessionManager.Put(r.Context(), session.KeyUserEmail, user.Email)

	h.logger.Info("signed in", "category", "auth", "email", user.Email)
	WriteSuccess(w, userPayload{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Admin: h.svc.Gate().Allowed(user.Email),
	}, nil)
}

// Signout serves POST /api/v1/auth/signout. The edit surface is
// forced back to viewing before the session dies, so an abandoned
// draft can never outlive its editor.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	h.svc.SignOut()

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		h.logger.Error("session destroy failed", "error", err)
		WriteInternalError(w, "Could not sign out")
		return
	}
	WriteSuccess(w, map[string]string{"status": "signed_out"}, nil)
}

func (h *AuthHandler) recordFailure(w http.ResponseWriter, email string) {
	if locked, lockFor := h.loginProtection.RecordFailure(email); locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Too many failed attempts, locked for %s", lockFor.Round(time.Second)), nil)
		return
	}
	WriteUnauthorized(w, "Invalid email or password")
}

// clientIP extracts the remote IP, honouring X-Forwarded-For from a
// reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
