// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validator accumulates field-level validation errors for
// request payloads and reports them as a map keyed by field name.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// EmailRX is a compiled regular expression for basic email validation.
var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Validator holds a map of field names to their first validation
// failure. An empty Errors map means the input is valid.
type Validator struct {
	Errors map[string]string
}

// New returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no field has failed.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with message. The first failure for
// a field wins; later ones for the same key are dropped.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// NotBlank reports whether value contains non-whitespace content.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxChars reports whether value is at most n characters long.
func MaxChars(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// In reports whether value is present in list.
func In[T comparable](value T, list ...T) bool {
	for _, item := range list {
		if value == item {
			return true
		}
	}
	return false
}

// Matches reports whether value matches the compiled regexp.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}
