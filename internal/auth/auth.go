package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long issued tokens remain valid.
const TokenTTL = 72 * time.Hour

// ErrInvalidCredentials rejects a login with a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken rejects a request carrying a missing or bad token.
var ErrInvalidToken = errors.New("invalid token")

// Config holds token issuing settings
type Config struct {
	TokenKey string
	Username string
	Password string
}

// Service issues and validates the gateway's HS256 bearer tokens
type Service struct {
	config Config
}

// NewService creates an auth service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// Login checks the credentials and issues a token
func (s *Service) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	return s.Issue(username)
}

// ExchangeGameToken trades a game-platform login token for a gateway
// token, so game backends can call the collection endpoints without the
// operator credentials.
func (s *Service) ExchangeGameToken(platformToken string) (string, error) {
	if strings.TrimSpace(platformToken) == "" {
		return "", ErrInvalidToken
	}
	// TODO: verify the token against the gesoten platform once its
	// verification API is available.
	return s.Issue("game-platform")
}

// Issue creates a signed token for the subject
func (s *Service) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims
func (s *Service) Validate(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
