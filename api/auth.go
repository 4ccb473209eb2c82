package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/xraph/mintledger/types"
)

type contextKey string

const (
	contextKeyCaller    contextKey = "mintledger.caller"
	contextKeyRequestID contextKey = "mintledger.request_id"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// CallerFrom returns the authenticated caller stored on ctx.
func CallerFrom(ctx context.Context) (types.Address, bool) {
	addr, ok := ctx.Value(contextKeyCaller).(types.Address)
	return addr, ok
}

// Authenticator verifies HMAC bearer tokens and resolves the caller.
type Authenticator struct {
	cfg    AuthConfig
	secret []byte
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator for cfg.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		now:    time.Now,
	}
}

// Middleware rejects requests without a valid token and stores the caller
// address on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r.Header.Get("Authorization"))
		if raw == "" {
			writeStatus(w, r, http.StatusUnauthorized, errMissingToken, "Unauthenticated")
			return
		}
		caller, err := a.Verify(raw)
		if err != nil {
			loggerFrom(r).Debug("token rejected", "error", err)
			writeStatus(w, r, http.StatusUnauthorized, errInvalidToken, "Unauthenticated")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Verify parses raw and returns the caller address named by its subject.
func (a *Authenticator) Verify(raw string) (types.Address, error) {
	if len(a.secret) == 0 {
		return types.ZeroAddress, errors.New("auth secret not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithTimeFunc(a.now),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return types.ZeroAddress, err
	}
	if !token.Valid {
		return types.ZeroAddress, errors.New("token invalid")
	}

	caller, err := types.ParseAddress(claims.Subject)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("subject: %w", err)
	}
	return caller, nil
}

// IssueToken signs a token for caller valid for ttl. A zero ttl issues a
// token without expiry.
func IssueToken(cfg AuthConfig, caller types.Address, ttl time.Duration) (string, error) {
	secret := []byte(strings.TrimSpace(cfg.HMACSecret))
	if len(secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  caller.Hex(),
		Issuer:   cfg.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
