package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

// TokenService issues and verifies short-lived signed access tokens. It is
// stateless: Verify never touches storage. The signing secret and lifetime
// are injected so tests can use short-lived tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured access-token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type accessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Issue mints a signed access token embedding the account identifier.
func (s *TokenService) Issue(accountID int64) (string, error) {
	nowT := time.Now().UTC()
	claims := accessClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(nowT),
			ExpiresAt: jwt.NewNumericDate(nowT.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and type tag and returns the embedded
// account id. Every failure collapses to ErrInvalidToken so callers cannot
// distinguish a forged token from an expired one.
func (s *TokenService) Verify(tokenStr string) (int64, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	if claims.Type != tokenTypeAccess {
		return 0, ErrInvalidToken
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return accountID, nil
}
