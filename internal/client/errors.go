// ABOUTME: Error taxonomy for flight API calls
// ABOUTME: Maps HTTP statuses and transport failures onto sentinel errors

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials means the username/password or provider token was rejected
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired means the server no longer accepts the stored session
	ErrSessionExpired = errors.New("session expired")
	// ErrAuthorizationDenied means a protected call returned 401/403
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrValidation means the server rejected the input (duplicate user, weak password, ...)
	ErrValidation = errors.New("validation failed")
	// ErrNetwork means no interpretable response was received
	ErrNetwork = errors.New("network error")
	// ErrNotFound means the requested booking, ticket or schedule does not exist
	ErrNotFound = errors.New("not found")
)

// ErrorResponse represents an API error body. The flight API returns
// {"message", "status"}; some gateways return {"error"}.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Message    string
	Kind       error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error: %s", e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Unwrap exposes the error kind for errors.Is
func (e *APIError) Unwrap() error {
	return e.Kind
}

// kindForStatus classifies a response status into the taxonomy
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuthorizationDenied
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest,
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		// 5xx, rate limiting, and anything else the client cannot act on
		return ErrNetwork
	}
}

// handleErrorResponse parses API error responses
func handleErrorResponse(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Kind:       kindForStatus(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Message = errResp.Message
		if apiErr.Message == "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	// Plain-text error bodies are common on the booking endpoints
	if text := strings.TrimSpace(string(body)); len(text) < 256 {
		apiErr.Message = text
	}
	return apiErr
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: request canceled", ErrNetwork)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return fmt.Errorf("%w: request timed out", ErrNetwork)
	}
	return fmt.Errorf("%w: cannot connect to backend at %s: %v", ErrNetwork, c.baseURL, err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Message returns the most useful user-facing text for err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
