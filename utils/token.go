package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/config"
)

type AccessInfo struct {
	Functions []string `json:"functions"`
}

// AccessClaims is the short-lived token presented on every request.
type AccessClaims struct {
	Role     string     `json:"role"`
	Info     AccessInfo `json:"info"`
	DeviceId string     `json:"deviceId"`
	UserId   string     `json:"userId"`
	UserName string     `json:"userName"`
	ShopsId  string     `json:"shopsId"`
	jwt.StandardClaims
}

// RefreshClaims only identifies the user; everything else is reloaded on refresh.
type RefreshClaims struct {
	UserId string `json:"id"`
	jwt.StandardClaims
}

func accessSecret() ([]byte, error) {
	secret := config.GetSettings().JwtAccessSecret
	if secret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET is required")
	}
	return []byte(secret), nil
}

func refreshSecret() ([]byte, error) {
	secret := config.GetSettings().JwtRefreshSecret
	if secret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET is required")
	}
	return []byte(secret), nil
}

func GenerateAccessToken(claims AccessClaims) (string, error) {
	secret, err := accessSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims.StandardClaims = jwt.StandardClaims{
		Id:        uuid.NewString(),
		ExpiresAt: now.Add(config.GetSettings().AccessTokenLifespan()).Unix(),
		IssuedAt:  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(secret)
}

func GenerateRefreshToken(userId string) (string, error) {
	secret, err := refreshSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &RefreshClaims{
		UserId: userId,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			ExpiresAt: now.Add(config.GetSettings().RefreshTokenLifespan()).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(secret)
}

// ValidateAccessToken checks signature and expiry only. Device binding is
// enforced by the auth guard.
func ValidateAccessToken(token string) (*AccessClaims, error) {
	secret, err := accessSecret()
	if err != nil {
		return nil, err
	}
	claims := &AccessClaims{}
	if err := parseToken(token, claims, secret); err != nil {
		return nil, err
	}
	if claims.UserId == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func ValidateRefreshToken(token string) (*RefreshClaims, error) {
	secret, err := refreshSecret()
	if err != nil {
		return nil, err
	}
	claims := &RefreshClaims{}
	if err := parseToken(token, claims, secret); err != nil {
		return nil, err
	}
	if claims.UserId == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func parseToken(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrUnauthorized
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value.
// The scheme must be exactly "Bearer".
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
