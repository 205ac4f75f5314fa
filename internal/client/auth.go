// ABOUTME: Authentication operations against the auth API
// ABOUTME: Sign-in, sign-up, sign-out, session validation, OAuth exchange, password flows

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/flightdesk/flightdesk/internal/session"
)

// SignInRequest is the sign-in payload
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpRequest is the registration payload. Roles are only sent when set.
type SignUpRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"role,omitempty"`
}

// JwtResponse is returned by sign-in and the OAuth exchange
type JwtResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Token    string   `json:"token,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// Session converts the response into the session record
func (r *JwtResponse) Session() *session.Session {
	return &session.Session{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Roles:     append([]string(nil), r.Roles...),
		Token:     r.Token,
		TokenType: r.Type,
	}
}

type oauthRequest struct {
	IDToken string `json:"idToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func authPath(endpoint string) string {
	return AuthPrefix + endpoint
}

// SignIn authenticates with username and password and stores the session
func (c *Client) SignIn(ctx context.Context, username, password string) (*session.Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/signin"), SignInRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, req)
}

// ExchangeOAuthCredential trades a Google ID token for a session
func (c *Client) ExchangeOAuthCredential(ctx context.Context, idToken string) (*session.Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/oauth/google"), oauthRequest{IDToken: idToken})
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, req)
}

// authenticate performs a credential exchange and persists the resulting
// session. The save takes its ticket on completion, so it is ordered after
// any invalidation that happened while the exchange was in flight.
func (c *Client) authenticate(ctx context.Context, req *http.Request) (*session.Session, error) {
	var resp JwtResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, classifySignInError(err)
	}
	if resp.Username == "" {
		return nil, fmt.Errorf("%w: invalid response from backend: missing username", ErrNetwork)
	}

	sess := resp.Session()
	if err := c.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	c.logger.Info("Signed in", "username", sess.Username, "roles", sess.Roles)
	return sess, nil
}

// SignUp registers a new account. It never touches the session.
func (c *Client) SignUp(ctx context.Context, signup SignUpRequest) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/signup"), signup)
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "User registered successfully"), nil
}

// SignOut ends the session. The local session is cleared whatever the
// server answers; the remote error, if any, is still returned.
func (c *Client) SignOut(ctx context.Context) (*Ack, error) {
	ticket := c.store.Ticket()

	var ack Ack
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/signout"), struct{}{})
	if err == nil {
		c.withCredential(req)
		err = c.doJSON(ctx, req, &ack)
	}

	if clearErr := c.store.ClearAt(ticket); clearErr != nil && !errors.Is(clearErr, session.ErrStaleWrite) {
		c.logger.Warn("Failed to clear session on sign-out", "error", clearErr)
	}

	if err != nil {
		c.logger.Warn("Remote sign-out failed, local session cleared", "error", err)
		return nil, err
	}
	return ackOrDefault(ack, "You've been signed out"), nil
}

// ValidateSession asks the server whether the current session is still
// accepted. Any failure clears the session. Concurrent callers share one
// request, and the request is not canceled when a caller goes away.
func (c *Client) ValidateSession(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)
	v, _, _ := c.validateGroup.Do("validate", func() (any, error) {
		return c.validate(ctx), nil
	})
	return v.(bool)
}

func (c *Client) validate(ctx context.Context) bool {
	observed := c.store.Current()

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if err = c.validateOnce(ctx, observed); err == nil {
			return true
		}

		// Only transport failures are retried; a server answer is final
		var apiErr *APIError
		if errors.As(err, &apiErr) || !errors.Is(err, ErrNetwork) {
			break
		}
		if attempt == 1 {
			c.logger.Debug("Session validation failed, retrying", "error", err)
		}
	}

	c.logger.Info("Session validation failed", "error", err)
	if clearErr := c.store.ClearIf(observed.Credential()); clearErr != nil && !errors.Is(clearErr, session.ErrStaleWrite) {
		c.logger.Warn("Failed to clear invalid session", "error", clearErr)
	}
	return false
}

// validateOnce checks the observed session, not whatever is current when the
// request goes out, so a failure clears exactly the credential it rejected
func (c *Client) validateOnce(ctx context.Context, observed *session.Session) error {
	req, err := c.newRequest(ctx, http.MethodGet, authPath("/validate"), nil)
	if err != nil {
		return err
	}
	if h := observed.AuthorizationHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
	return c.doJSON(ctx, req, nil)
}

// classifySignInError maps a failed credential exchange onto the taxonomy:
// a rejection is ErrInvalidCredentials, rejected input is ErrValidation, and
// everything else is ErrNetwork
func classifySignInError(err error) error {
	switch {
	case errors.Is(err, ErrAuthorizationDenied):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNetwork):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}

// RequestPasswordReset asks the server to email a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/forgot-password"), forgotPasswordRequest{Email: email})
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "Password reset link has been sent"), nil
}

// ResetPassword sets a new password using an emailed reset token
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/reset-password"), resetPasswordRequest{
		Token:           resetToken,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "Password has been reset"), nil
}

// ChangePassword changes the signed-in user's password. The session is
// left as it is.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, authPath("/change-password"), changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
	if err != nil {
		return nil, err
	}
	c.withCredential(req)

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "Password changed successfully"), nil
}
