package audiostore

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const tokenIssuer = "voice-assistant"

var ErrInvalidToken = errors.New("invalid audio token")

// Signer issues short-lived HS256 tokens bound to one audio name, so only
// links this server handed out can be fetched.
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(key string, ttl time.Duration) (*Signer, error) {
	if key == "" {
		return nil, errors.New("signing key is required")
	}
	return &Signer{key: []byte(key), ttl: ttl}, nil
}

func (s *Signer) Sign(name string) (string, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:   name,
		Issuer:    tokenIssuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, "signing audio token")
	}
	return token, nil
}

// Verify checks that token is valid, unexpired and issued for name.
func (s *Signer) Verify(name, token string) error {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != name || claims.Issuer != tokenIssuer {
		return ErrInvalidToken
	}
	return nil
}
