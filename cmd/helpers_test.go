// ABOUTME: Test helpers for command tests
// ABOUTME: Points commands at an httptest backend with a temp session directory

package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flightdesk/flightdesk/internal/session"
)

// setupCommand starts a backend for handler, points the global flags at it,
// and returns the config directory holding the session file.
func setupCommand(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	t.Setenv("FLIGHTDESK_CONFIG_DIR", dir)
	t.Setenv("FLIGHTDESK_STORAGE", "file")
	t.Setenv("LOG_LEVEL", "error")

	prevURL, prevJSON, prevStorage, prevInteractive := apiURL, jsonOutput, storageMode, interactive
	apiURL = server.URL
	storageMode = ""
	interactive = func() bool { return false }
	t.Cleanup(func() {
		apiURL, jsonOutput, storageMode, interactive = prevURL, prevJSON, prevStorage, prevInteractive
	})
	return dir
}

// signIn stores sess as the current session in dir
func signIn(t *testing.T, dir string, sess *session.Session) {
	t.Helper()
	store := session.New(session.NewFileStorage(dir))
	defer store.Close()
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
}

// storedSession reads the session the commands left in dir
func storedSession(dir string) *session.Session {
	store := session.New(session.NewFileStorage(dir))
	defer store.Close()
	return store.Current()
}

func alice() *session.Session {
	return &session.Session{
		ID:       7,
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []string{session.RoleUser},
		Token:    "alice-token",
	}
}

func admin() *session.Session {
	return &session.Session{
		ID:       1,
		Username: "root",
		Email:    "root@example.com",
		Roles:    []string{session.RoleAdmin},
		Token:    "root-token",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// validating wraps handler so session validation succeeds
func validating(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1.0/auth/validate" {
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
			return
		}
		handler(w, r)
	}
}
