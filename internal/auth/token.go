package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"live-quiz-service/internal/domain"
)

// TokenService signs and verifies the opaque credentials exchanged during
// the websocket handshake and on the REST surface. HS256 with a shared
// secret, claims id/name/email/role.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a verifier/issuer. A zero ttl issues tokens
// without an expiry claim.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(user domain.User) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = time.Now().Add(s.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses the credential and yields the identity baked into it.
// A token missing any of id, email, or role is rejected even if the
// signature checks out.
func (s *TokenService) Verify(credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	id, _ := claims["id"].(string)
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if id == "" || email == "" || role == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	return domain.Identity{
		UserID:      id,
		DisplayName: name,
		Email:       email,
		Role:        domain.Role(role),
	}, nil
}
