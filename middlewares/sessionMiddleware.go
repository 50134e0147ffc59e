package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
)

// SessionMiddleware attaches the caller to the context when the bearer token
// passes the guard. Requests without a valid session continue anonymously;
// the @auth directive rejects them per field, so signIn stays reachable.
func SessionMiddleware(guard *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		token, _ := utils.BearerToken(auth)
		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		claims, err := guard.Authenticate(ctx, auth, models.UserRoleAny)
		if err == nil {
			ctx = utils.SetAccessClaimsInContext(ctx, claims)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// DeviceIdHandler serves GET /auth/deviceId: the device registered for the
// token's user, as plain text. Only the signature is checked here; this is
// the endpoint the guard itself calls.
func DeviceIdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.String(http.StatusUnauthorized, utils.ErrUnauthorized.Message)
			return
		}
		claims, err := utils.ValidateAccessToken(token)
		if err != nil {
			c.String(http.StatusUnauthorized, utils.ErrUnauthorized.Message)
			return
		}
		deviceId, err := models.GetDeviceId(c.Request.Context(), claims.UserId)
		if err != nil {
			status := models.NewStatus(c.Request.Context(), "sessionMiddleware.go", "DeviceIdHandler", err)
			c.String(status.Code, status.Message)
			return
		}
		c.String(http.StatusOK, deviceId)
	}
}

// CorrelationMiddleware reuses the caller's x-correlation-id or starts a new one.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
