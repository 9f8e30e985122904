package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shoplist-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredential = errors.New("authorization token is required")
	ErrInvalidCredential = errors.New("invalid token")
)

// Authenticator maps a bearer token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

type JWTAuthenticator struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

func NewJWTAuthenticator(secret string, expire time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(secret),
		expire: expire,
		now:    time.Now,
	}
}

// IssueToken creates a signed HS256 token for the user
func (a *JWTAuthenticator) IssueToken(user *models.User) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"exp":      now.Add(a.expire).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, tokenString string) (uint, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return 0, ErrMissingCredential
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredential
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, ErrInvalidCredential
	}

	return uint(userID), nil
}

// TokenFromRequest extracts the bearer credential from the Authorization
// header, falling back to the token query parameter for clients that cannot
// set headers (EventSource, browser websockets).
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(strings.TrimPrefix(r.URL.Query().Get("token"), "Bearer "))
}
