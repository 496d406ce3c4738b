// Package auth provides session tokens, password hashing, and the HTTP
// middleware gates for the snippet-sharing API.
//
// SESSION FLOW:
// 1. User registers or logs in (password or GitHub OAuth)
// 2. Server issues a signed JWT whose Subject is the user's ID and stores it
//    in an HttpOnly "session" cookie
// 3. On subsequent requests, middleware reads the cookie, validates the
//    signature and expiry, and puts the userID into the request context
//
// WHY JWT FOR THE SESSION COOKIE?
// The token is stateless — no session table, no store lookup on every
// request. Everything needed (userID, expiry) is inside the signed value,
// and the HMAC signature means nobody can forge a cookie for another user
// without the secret key.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionLifetime is how long a login lasts before the user must sign in
// again. Browser sessions, not API tokens, so days rather than minutes.
const SessionLifetime = 7 * 24 * time.Hour

// SessionCookie is the name of the HttpOnly cookie carrying the token.
const SessionCookie = "session"

const tokenIssuer = "snipnest"

// TokenService signs and validates session tokens.
// It holds the HMAC secret — the same secret must be used for both
// operations, and it should be at least 32 bytes of random data in
// production (JWT_SECRET=$(openssl rand -hex 32)).
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. jwt.RegisteredClaims provides the standard
// fields; we use "sub" (Subject) for the user's internal ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and right for a
// single-server deployment where the same process signs and verifies.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the userID from the
// "sub" claim.
//
// The jwt library checks the signature, the expiry, and the issuer for us.
// Passing jwt.WithValidMethods pins the algorithm to HS256 — without it an
// attacker could try an algorithm-confusion attack ("none", or an RSA public
// key used as an HMAC secret).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}

// SetSessionCookie writes the session token to the response.
// HttpOnly keeps JavaScript away from it (XSS protection); SameSite=Lax
// keeps it off cross-site POSTs. Secure should be enabled behind HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
// MaxAge -1 means "delete immediately". The token itself stays valid until
// it expires, but without the cookie the browser can't send it.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
