// Package auth resolves a session cookie into a user identity and role.
//
// The gate never trusts the client for identity: a session token is either
// verified locally against the identity service's public key or exchanged
// remotely at the service's user endpoint. Any failure along the way is an
// IdentityResolutionFailure for the caller, never a fatal error.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin is the only role the gate treats specially; everything else is
// an ordinary authenticated user.
const RoleAdmin = "admin"

var (
	// ErrBadToken marks a session token that failed verification.
	ErrBadToken = errors.New("invalid session token")
	// ErrIdentityService marks a failure talking to the identity service.
	ErrIdentityService = errors.New("identity service unavailable")
)

// Identity is a resolved user. A nil *Identity means unauthenticated.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Resolver exchanges a raw Cookie header for an identity.
// (nil, nil) signals an anonymous request; errors signal resolution failure.
type Resolver interface {
	Resolve(ctx context.Context, cookieHeader string) (*Identity, error)
}

// RoleFunc derives a role string from an identity.
type RoleFunc func(Identity) string

// NewRoleFunc builds the role derivation used by the platform: users whose
// email is listed, or whose email domain is listed, are admins; everyone
// else is a student.
func NewRoleFunc(adminDomains, adminEmails []string) RoleFunc {
	domains := make(map[string]bool, len(adminDomains))
	for _, d := range adminDomains {
		domains[strings.ToLower(strings.TrimPrefix(d, "@"))] = true
	}
	emails := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		emails[strings.ToLower(e)] = true
	}
	return func(id Identity) string {
		email := strings.ToLower(id.Email)
		if emails[email] {
			return RoleAdmin
		}
		if at := strings.LastIndex(email, "@"); at >= 0 && domains[email[at+1:]] {
			return RoleAdmin
		}
		return "student"
	}
}

// SessionResolver verifies session JWTs. With a public key configured the
// token is verified locally; otherwise it is sent to the identity service's
// user endpoint for remote verification.
type SessionResolver struct {
	cookieName  string
	identityURL string
	publicKey   *rsa.PublicKey
	client      *http.Client
}

// NewSessionResolver builds a resolver. publicKeyPEM may be empty, in which
// case identityURL must point at the identity service.
func NewSessionResolver(cookieName, identityURL, publicKeyPEM string, timeout time.Duration) (*SessionResolver, error) {
	r := &SessionResolver{
		cookieName:  cookieName,
		identityURL: strings.TrimRight(identityURL, "/"),
		client:      &http.Client{Timeout: timeout},
	}
	if publicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity public key: %w", err)
		}
		r.publicKey = key
	} else if r.identityURL == "" {
		return nil, fmt.Errorf("either a public key or an identity service URL is required")
	}
	return r, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (r *SessionResolver) Resolve(ctx context.Context, cookieHeader string) (*Identity, error) {
	token := sessionToken(cookieHeader, r.cookieName)
	if token == "" {
		return nil, nil
	}
	if r.publicKey != nil {
		return r.verifyLocal(token)
	}
	return r.verifyRemote(ctx, token)
}

func (r *SessionResolver) verifyLocal(token string) (*Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return r.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrBadToken)
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

func (r *SessionResolver) verifyRemote(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.identityURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityService, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var id Identity
		if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
			return nil, fmt.Errorf("%w: decode user: %v", ErrIdentityService, err)
		}
		if id.ID == "" {
			return nil, fmt.Errorf("%w: user record has no id", ErrIdentityService)
		}
		return &id, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: identity service rejected token (%d)", ErrBadToken, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrIdentityService, resp.StatusCode)
	}
}

// sessionToken pulls the named cookie's value out of a raw Cookie header.
func sessionToken(cookieHeader, name string) string {
	if cookieHeader == "" {
		return ""
	}
	req := http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
