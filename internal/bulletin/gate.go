// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package bulletin

import (
	"strings"

	"github.com/propcrest/bulletin-go/internal/model"
)

// Decision is the outcome of an admin access check.
type Decision string

const (
	// DecisionGranted means the caller may edit the bulletin.
	DecisionGranted Decision = "granted"
	// DecisionMustAuthenticate means no valid session is present; the
	// caller should be sent to sign in.
	DecisionMustAuthenticate Decision = "must-authenticate"
	// DecisionForbidden means the caller is signed in but not on the
	// admin allow-list.
	DecisionForbidden Decision = "forbidden"
)

// Gate decides admin effectiveness from a session against a fixed
// allow-list of email addresses. It holds no mutable state: every
// check is a pure derivation from its inputs, re-evaluated on each
// call rather than cached.
type Gate struct {
	allow map[string]struct{}
}

// NewGate builds a gate from the configured allow-list. Emails are
// matched case-insensitively.
func NewGate(emails []string) *Gate {
	allow := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	return &Gate{allow: allow}
}

// Allowed reports whether the email is on the allow-list.
func (g *Gate) Allowed(email string) bool {
	_, ok := g.allow[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Effective derives the admin-effective flag: authenticated, token
// still valid, and email on the allow-list. False whenever the session
// is unauthenticated, regardless of the other inputs.
func (g *Gate) Effective(s model.AdminSession) bool {
	return s.IsAuthenticated && !s.TokenExpired && g.Allowed(s.Email)
}

// CheckAccess classifies the session for the edit surface.
func (g *Gate) CheckAccess(s model.AdminSession) Decision {
	if !s.IsAuthenticated || s.TokenExpired {
		return DecisionMustAuthenticate
	}
	if !g.Allowed(s.Email) {
		return DecisionForbidden
	}
	return DecisionGranted
}
