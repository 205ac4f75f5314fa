// ABOUTME: Session model for the signed-in flightdesk user
// ABOUTME: Holds identity, role claims, and the bearer credential with derived accessors

package session

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Well-known role claims issued by the flight API
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Session is the client-held record of the authenticated identity.
// The JSON shape matches the sign-in response of the auth API so the body can
// be decoded straight into it.
type Session struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	Token     string   `json:"token,omitempty"`
	TokenType string   `json:"type,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate cached state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Roles = slices.Clone(s.Roles)
	return &c
}

// Equal reports whether two sessions describe the same identity and credential
func (s *Session) Equal(o *Session) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID &&
		s.Username == o.Username &&
		s.Email == o.Email &&
		s.Token == o.Token &&
		s.TokenType == o.TokenType &&
		slices.Equal(s.Roles, o.Roles)
}

// HasRole returns true if the session carries the given role claim
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Roles, role)
}

// HasAnyRole returns true if the session's roles intersect allowed
func (s *Session) HasAnyRole(allowed ...string) bool {
	if s == nil {
		return false
	}
	for _, role := range s.Roles {
		if slices.Contains(allowed, role) {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin)
func (s *Session) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// Credential returns the bearer token, or "" for a nil or cookie-only session
func (s *Session) Credential() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// AuthorizationHeader returns the value for the Authorization header, or ""
// when the session has no bearer credential.
func (s *Session) AuthorizationHeader() string {
	if s == nil || s.Token == "" {
		return ""
	}
	scheme := s.TokenType
	if scheme == "" {
		scheme = "Bearer"
	}
	return scheme + " " + s.Token
}

// ExpiresAt decodes the exp claim of the bearer token without verifying it.
// The server remains the authority; this is only used for display and hints.
// Returns the zero time when there is no token or it is not a JWT.
func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.Token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Expired reports whether the token's exp claim is before now.
// Sessions without a decodable expiry never report expired.
func (s *Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}
