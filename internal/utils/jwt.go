package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of random bytes
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// TokenStatus classifies the outcome of verifying an activation token.
// Callers branch on the status; they never inspect library error types.
type TokenStatus int

const (
	TokenValid   TokenStatus = iota // signature and expiry check out
	TokenExpired                    // correctly signed but past its exp
	TokenInvalid                    // bad signature, wrong algorithm, malformed or missing email
	TokenError                      // anything else
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenInvalid:
		return "invalid"
	default:
		return "error"
	}
}

// TokenResult is the tagged result of ActivationTokens.Verify.  Email is
// only set when Status is TokenValid.
type TokenResult struct {
	Status TokenStatus
	Email  string
	Err    error
}

// ActivationToken is a signed activation credential along with its expiry.
type ActivationToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

type activationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ActivationTokens issues and verifies HS256 activation tokens.  The secret
// and lifetime are fixed at construction.
type ActivationTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewActivationTokens builds an issuer/verifier for the given secret.  A
// non-positive ttl falls back to 24 hours.
func NewActivationTokens(secret string, ttl time.Duration) *ActivationTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ActivationTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token embedding email that expires after the configured ttl.
func (a *ActivationTokens) Issue(email string) (ActivationToken, error) {
	now := a.now().UTC()
	exp := now.Add(a.ttl)
	claims := activationClaims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return ActivationToken{}, err
	}
	return ActivationToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature and expiry of raw and extracts the email.
// The signature is checked before expiry, so a tampered token that is also
// expired reports TokenInvalid.
func (a *ActivationTokens) Verify(raw string) TokenResult {
	var claims activationClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims,
		func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenResult{Status: TokenExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return TokenResult{Status: TokenInvalid, Err: err}
	default:
		return TokenResult{Status: TokenError, Err: err}
	}
	if claims.Email == "" {
		return TokenResult{Status: TokenInvalid, Err: errors.New("token carries no email")}
	}
	return TokenResult{Status: TokenValid, Email: claims.Email}
}

// TemporaryPassword returns a random password handed to newly registered
// users until they choose their own.
func TemporaryPassword() (string, error) {
	return randomHex(8) // 8 bytes -> 16 hex chars
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
