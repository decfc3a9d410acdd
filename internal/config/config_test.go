// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BULLETIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/bulletin.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/bulletin.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DefaultPerPage != 5 {
		t.Errorf("DefaultPerPage = %d, want 5", cfg.DefaultPerPage)
	}
	if len(cfg.AdminEmails) != 0 {
		t.Errorf("AdminEmails = %v, want empty", cfg.AdminEmails)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing session secret")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BULLETIN_SESSION_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for short session secret")
	}
	if !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("error = %v, want mention of minimum length", err)
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BULLETIN_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for known weak secret")
	}
}

func TestLoad_AdminEmails(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BULLETIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
	setEnv(t, "BULLETIN_ADMIN_EMAILS", " Admin@Example.com ,second@example.com,, ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"admin@example.com", "second@example.com"}
	if len(cfg.AdminEmails) != len(want) {
		t.Fatalf("AdminEmails = %v, want %v", cfg.AdminEmails, want)
	}
	for i := range want {
		if cfg.AdminEmails[i] != want[i] {
			t.Errorf("AdminEmails[%d] = %q, want %q", i, cfg.AdminEmails[i], want[i])
		}
	}
}

func TestLoad_InvalidPerPage(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BULLETIN_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
	setEnv(t, "BULLETIN_DEFAULT_PER_PAGE", "7")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for per-page value outside the allowed set")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Config{ServerHost: "localhost", ServerPort: 9090}
	if got := cfg.ServerAddr(); got != "localhost:9090" {
		t.Errorf("ServerAddr() = %q, want %q", got, "localhost:9090")
	}
}

func TestImageUploadEnabled(t *testing.T) {
	cfg := Config{}
	if cfg.ImageUploadEnabled() {
		t.Error("ImageUploadEnabled() = true, want false when unconfigured")
	}
	cfg.ImageUploadURL = "https://img.example.com/upload"
	cfg.ImageUploadPreset = "unsigned"
	if !cfg.ImageUploadEnabled() {
		t.Error("ImageUploadEnabled() = false, want true when configured")
	}
}
