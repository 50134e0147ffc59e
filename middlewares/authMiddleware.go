package middlewares

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
)

const deviceIdPath = "/auth/deviceId"

// DeviceLookup returns the device currently registered for the session the
// bearer token belongs to.
type DeviceLookup interface {
	RegisteredDeviceId(ctx context.Context, token string) (string, error)
}

// IdentityClient calls the identity endpoint over HTTP.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *IdentityClient) RegisteredDeviceId(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+deviceIdPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		req.Header.Set("x-correlation-id", cid)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity endpoint answered %d", resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}

// Guard decides whether a bearer token may act. Every failure is reported as
// utils.ErrUnauthorized; the cause is logged.
type Guard struct {
	devices DeviceLookup
}

func NewGuard(devices DeviceLookup) *Guard {
	return &Guard{devices: devices}
}

// Authenticate verifies the token, the role and the device binding, in that
// order. role UserRoleAny accepts every authenticated caller.
func (g *Guard) Authenticate(ctx context.Context, authorization string, role models.UserRole) (*utils.AccessClaims, error) {
	token, ok := utils.BearerToken(authorization)
	if !ok {
		return nil, utils.ErrUnauthorized
	}
	claims, err := utils.ValidateAccessToken(token)
	if err != nil {
		return nil, utils.ErrUnauthorized
	}
	if role != "" && role != models.UserRoleAny && claims.Role != string(role) {
		return nil, utils.ErrUnauthorized
	}
	if claims.DeviceId == "" {
		return nil, utils.ErrUnauthorized
	}

	registered, err := g.devices.RegisteredDeviceId(ctx, token)
	if err != nil {
		config.LogWarn(config.GetLogger(), "authMiddleware.go", "Authenticate", "device lookup "+claims.UserId, err)
		return nil, utils.ErrUnauthorized
	}
	if registered == "" || subtle.ConstantTimeCompare([]byte(registered), []byte(claims.DeviceId)) != 1 {
		return nil, utils.ErrUnauthorized
	}
	return claims, nil
}

// AuthMiddleware rejects the request with 401 unless the guard allows it.
func AuthMiddleware(guard *Guard, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := guard.Authenticate(c.Request.Context(), c.GetHeader("Authorization"), role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUnauthorized.Message})
			return
		}
		ctx := utils.SetTokenInContext(c.Request.Context(), strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		c.Request = c.Request.WithContext(utils.SetAccessClaimsInContext(ctx, claims))
		c.Next()
	}
}
