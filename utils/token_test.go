package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/mmdatafocus/inventory_backend/config"
)

func setTestSettings(t *testing.T) {
	t.Helper()
	config.SetSettings(&config.Settings{
		JwtAccessSecret:          "access-secret",
		JwtRefreshSecret:         "refresh-secret",
		AccessTokenHourLifespan:  24,
		RefreshTokenHourLifespan: 168,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	setTestSettings(t)
	token, err := GenerateAccessToken(AccessClaims{
		Role:     "Admin",
		Info:     AccessInfo{Functions: []string{"inventory"}},
		DeviceId: "device-1",
		UserId:   "user-1",
		UserName: "alice",
		ShopsId:  "shop-1",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.DeviceId != "device-1" || claims.ShopsId != "shop-1" || claims.Role != "Admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Info.Functions) != 1 || claims.Info.Functions[0] != "inventory" {
		t.Fatalf("unexpected functions %v", claims.Info.Functions)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	setTestSettings(t)
	refresh, err := GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if _, err := ValidateAccessToken(refresh); err != ErrUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if claims.UserId != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserId)
	}
}

func TestRefreshTokensAreUniquePerIssue(t *testing.T) {
	setTestSettings(t)
	a, _ := GenerateRefreshToken("user-1")
	b, _ := GenerateRefreshToken("user-1")
	if a == b {
		t.Fatalf("expected distinct refresh tokens within the same second")
	}
}

func TestValidateAccessToken_RejectsExpiredAndUnsigned(t *testing.T) {
	setTestSettings(t)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		UserId: "user-1",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	})
	signed, err := expired.SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAccessToken(signed); err != ErrUnauthorized {
		t.Fatalf("expired: expected unauthorized, got %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &AccessClaims{UserId: "user-1"})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAccessToken(none); err != ErrUnauthorized {
		t.Fatalf("alg none: expected unauthorized, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("BearerToken(%q) expected (%q,%v), got (%q,%v)", tc.header, tc.token, tc.ok, token, ok)
		}
	}
}
