// ABOUTME: Tests for authentication operations
// ABOUTME: Verifies session persistence, sign-out semantics, and validation retries

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flightdesk/flightdesk/internal/session"
)

func aliceResponse() JwtResponse {
	return JwtResponse{
		ID:       7,
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []string{session.RoleUser},
		Token:    "jwt-alice",
		Type:     "Bearer",
	}
}

func TestSignIn_Success(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/auth/signin" {
			t.Errorf("expected signin path, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("sign-in must not carry a bearer credential")
		}

		var body SignInRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "alice" || body.Password != "Secret123!" {
			t.Errorf("unexpected credentials %+v", body)
		}
		writeJSON(w, http.StatusOK, aliceResponse())
	})

	sess, err := c.SignIn(context.Background(), "alice", "Secret123!")
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if sess.Username != "alice" || !sess.HasRole(session.RoleUser) {
		t.Errorf("unexpected session %+v", sess)
	}
	if !store.IsAuthenticated() {
		t.Fatal("expected store to hold the session")
	}
	if got := store.Current(); got.Token != "jwt-alice" || got.ID != 7 {
		t.Errorf("unexpected stored session %+v", got)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, ErrorResponse{Message: "Bad credentials"})
		})

		_, err := c.SignIn(context.Background(), "alice", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
		if Message(err) != "Bad credentials" {
			t.Errorf("status %d: expected server message, got %q", status, Message(err))
		}
		if store.IsAuthenticated() {
			t.Error("failed sign-in must not create a session")
		}
		if len(nav.redirects) != 0 {
			t.Error("sign-in is public and must not trigger a redirect")
		}
	}
}

func TestSignIn_ServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unavailable", http.StatusServiceUnavailable},
		{"internal error", http.StatusInternalServerError},
		{"not found", http.StatusNotFound},
		{"method not allowed", http.StatusMethodNotAllowed},
		{"rate limited", http.StatusTooManyRequests},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := c.SignIn(context.Background(), "alice", "Secret123!")
			if !errors.Is(err, ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
			if errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("status %d must not read as invalid credentials", tc.status)
			}
			if store.IsAuthenticated() {
				t.Error("expected no session")
			}
		})
	}
}

func TestSignIn_MissingUsername(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "x"})
	})

	if _, err := c.SignIn(context.Background(), "alice", "Secret123!"); err == nil {
		t.Error("expected error for response without username")
	}
	if store.IsAuthenticated() {
		t.Error("expected no session")
	}
}

func TestExchangeOAuthCredential(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/auth/oauth/google" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["idToken"] != "google-id-token" {
			t.Errorf("expected idToken in body, got %v", body)
		}
		writeJSON(w, http.StatusOK, aliceResponse())
	})

	if _, err := c.ExchangeOAuthCredential(context.Background(), "google-id-token"); err != nil {
		t.Fatalf("ExchangeOAuthCredential() error: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Error("expected session after OAuth exchange")
	}
}

func TestSignUp(t *testing.T) {
	var got map[string]any
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, Ack{Message: "User registered successfully!"})
	})

	ack, err := c.SignUp(context.Background(), SignUpRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}
	if ack.Message != "User registered successfully!" {
		t.Errorf("unexpected message %q", ack.Message)
	}
	if _, ok := got["role"]; ok {
		t.Error("roles must be omitted when empty")
	}
	if store.IsAuthenticated() {
		t.Error("sign-up must not create a session")
	}
}

func TestSignUp_Duplicate(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Error: Username is already taken!"})
	})

	_, err := c.SignUp(context.Background(), SignUpRequest{Username: "alice", Roles: []string{"user"}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestSignOut_ClearsOnSuccess(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-alice" {
			t.Errorf("expected bearer on sign-out, got %q", r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusOK, Ack{Message: "You've been signed out!"})
	})
	store.Save(aliceSession())

	if _, err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("expected session cleared")
	}
}

func TestSignOut_ClearsOnNetworkError(t *testing.T) {
	store := session.New(session.NewMemoryStorage())
	store.Save(aliceSession())

	c, err := New("http://127.0.0.1:1", WithStore(store))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = c.SignOut(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected remote error to surface, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("expected local session cleared despite network failure")
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"accepted", http.StatusOK, true},
		{"expired", http.StatusUnauthorized, false},
		{"forbidden", http.StatusForbidden, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1.0/auth/validate" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer jwt-alice" {
					t.Errorf("expected bearer credential, got %q", r.Header.Get("Authorization"))
				}
				writeJSON(w, tc.status, Ack{Message: "ok"})
			})
			store.Save(aliceSession())

			if got := c.ValidateSession(context.Background()); got != tc.want {
				t.Errorf("ValidateSession() = %v, want %v", got, tc.want)
			}
			if store.IsAuthenticated() != tc.want {
				t.Errorf("expected authenticated=%v after validation", tc.want)
			}
			if len(nav.redirects) != 0 {
				t.Error("validation must leave navigation to the guard")
			}
		})
	}
}

func TestValidateSession_RetriesNetworkErrorOnce(t *testing.T) {
	var attempts atomic.Int32
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Drop the connection without a response
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("expected hijackable response writer")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		writeJSON(w, http.StatusOK, Ack{Message: "valid"})
	})
	store.Save(aliceSession())

	if !c.ValidateSession(context.Background()) {
		t.Error("expected validation to succeed on retry")
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestValidateSession_NoRetryOnServerAnswer(t *testing.T) {
	var attempts atomic.Int32
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	store.Save(aliceSession())

	c.ValidateSession(context.Background())
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestValidateSession_ConcurrentCallersShareRequest(t *testing.T) {
	var attempts atomic.Int32
	release := make(chan struct{})
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		<-release
		writeJSON(w, http.StatusOK, Ack{Message: "valid"})
	})
	store.Save(aliceSession())

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.ValidateSession(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Errorf("caller %d got false", i)
		}
	}
	if attempts.Load() != 1 {
		t.Errorf("expected a single shared request, got %d", attempts.Load())
	}
}

func TestValidateSession_StaleFailureKeepsNewerSignIn(t *testing.T) {
	validating := make(chan struct{})
	release := make(chan struct{})
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/validate":
			close(validating)
			<-release
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/v1.0/auth/signin":
			writeJSON(w, http.StatusOK, aliceResponse())
		}
	})

	done := make(chan bool)
	go func() { done <- c.ValidateSession(context.Background()) }()

	<-validating
	if _, err := c.SignIn(context.Background(), "alice", "Secret123!"); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	close(release)

	if <-done {
		t.Error("expected validation to report failure")
	}
	if !store.IsAuthenticated() {
		t.Error("late validation failure must not wipe the newer sign-in")
	}
}

func expiredSession() *session.Session {
	return &session.Session{
		Username:  "alice",
		Roles:     []string{session.RoleUser},
		Token:     "expired-token",
		TokenType: "Bearer",
	}
}

func TestSignIn_SurvivesRejectionOfOldCredential(t *testing.T) {
	signingIn := make(chan struct{})
	release := make(chan struct{})
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/signin":
			close(signingIn)
			<-release
			writeJSON(w, http.StatusOK, aliceResponse())
		case "/api/v1.0/flight/booking/history":
			if r.Header.Get("Authorization") != "Bearer expired-token" {
				t.Errorf("expected the old credential, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	store.Save(expiredSession())

	type result struct {
		sess *session.Session
		err  error
	}
	done := make(chan result)
	go func() {
		sess, err := c.SignIn(context.Background(), "alice", "Secret123!")
		done <- result{sess, err}
	}()

	// A request made with the old credential is rejected mid sign-in
	<-signingIn
	if _, err := c.Bookings(context.Background()); !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected ErrAuthorizationDenied, got %v", err)
	}
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("SignIn() error: %v", r.err)
	}
	current := store.Current()
	if current == nil {
		t.Fatal("SignIn reported success but the store is empty")
	}
	if current.Token != "jwt-alice" {
		t.Errorf("expected the new credential, got %q", current.Token)
	}
}

func TestInterceptor_LateRejectionKeepsNewerSignIn(t *testing.T) {
	requested := make(chan struct{})
	release := make(chan struct{})
	c, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/signin":
			writeJSON(w, http.StatusOK, aliceResponse())
		case "/api/v1.0/flight/booking/history":
			close(requested)
			<-release
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	store.Save(expiredSession())

	done := make(chan error)
	go func() {
		_, err := c.Bookings(context.Background())
		done <- err
	}()

	<-requested
	if _, err := c.SignIn(context.Background(), "alice", "Secret123!"); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("expected ErrAuthorizationDenied, got %v", err)
	}
	if got := store.Current().Credential(); got != "jwt-alice" {
		t.Errorf("rejection of the old credential wiped the newer sign-in, token %q", got)
	}
	if len(nav.redirects) != 0 {
		t.Errorf("expected no redirect, got %v", nav.redirects)
	}
}

func TestPasswordFlows(t *testing.T) {
	var paths []string
	var bodies []map[string]string
	var auth []string
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, body)
		auth = append(auth, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, Ack{Message: "done"})
	})
	store.Save(aliceSession())
	ctx := context.Background()

	if _, err := c.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error: %v", err)
	}
	if _, err := c.ResetPassword(ctx, "reset-tok", "NewSecret1!", "NewSecret1!"); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}
	if _, err := c.ChangePassword(ctx, "Secret123!", "NewSecret1!", "NewSecret1!"); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}

	wantPaths := []string{
		"/api/v1.0/auth/forgot-password",
		"/api/v1.0/auth/reset-password",
		"/api/v1.0/auth/change-password",
	}
	for i, p := range wantPaths {
		if paths[i] != p {
			t.Errorf("call %d path = %s, want %s", i, paths[i], p)
		}
	}
	if bodies[0]["email"] != "alice@example.com" {
		t.Errorf("unexpected forgot-password body %v", bodies[0])
	}
	if bodies[1]["token"] != "reset-tok" || bodies[1]["confirmPassword"] != "NewSecret1!" {
		t.Errorf("unexpected reset-password body %v", bodies[1])
	}
	if bodies[2]["currentPassword"] != "Secret123!" {
		t.Errorf("unexpected change-password body %v", bodies[2])
	}
	if auth[0] != "" || auth[1] != "" {
		t.Error("reset flows must not carry the bearer credential")
	}
	if auth[2] != "Bearer jwt-alice" {
		t.Errorf("change-password must carry the bearer credential, got %q", auth[2])
	}
	if !store.Current().Equal(aliceSession()) {
		t.Error("password operations must not alter the session")
	}
}

func aliceSession() *session.Session {
	r := aliceResponse()
	return r.Session()
}
