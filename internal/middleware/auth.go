// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session resolution,
// CSRF protection, and sign-in rate limiting.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/propcrest/bulletin-go/internal/model"
	"github.com/propcrest/bulletin-go/internal/session"
	"github.com/propcrest/bulletin-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAdminSession carries the resolved admin session state.
const ContextKeyAdminSession ContextKey = "admin_session"

// ResolveSession resolves the request's session into a
// model.AdminSession and stores it in the request context. Every
// request passes through here; the admin gate re-evaluates the result
// on each authorization check rather than trusting a cached flag.
//
// A session that names a user who no longer exists is marked expired
// and destroyed, so a deleted account drops out of edit mode on its
// next request.
func ResolveSession(sm *scs.SessionManager, queries *store.Queries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess model.AdminSession

			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID != 0 {
				user, err := queries.GetUserByID(r.Context(), userID)
				switch {
				case err == nil:
					sess = model.AdminSession{
						IsAuthenticated: true,
						Name:            user.Name,
						Email:           user.Email,
					}
				case errors.Is(err, store.ErrNotFound):
					sess = model.AdminSession{IsAuthenticated: true, TokenExpired: true}
					_ = sm.Destroy(r.Context())
				default:
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdminSession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminSession returns the session state resolved by
// ResolveSession. Returns the zero (anonymous) session when the
// middleware did not run.
func GetAdminSession(r *http.Request) model.AdminSession {
	sess, _ := r.Context().Value(ContextKeyAdminSession).(model.AdminSession)
	return sess
}

// RequireAuth rejects unauthenticated requests with 401. Allow-list
// membership is checked by the service, not here.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetAdminSession(r)
		if !sess.IsAuthenticated || sess.TokenExpired {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
