package directives

import (
	"context"

	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// RoleFromDirective maps the @auth(role:) argument onto a user role.
// A missing argument means any authenticated caller.
func RoleFromDirective(arg interface{}) models.UserRole {
	switch arg {
	case "ADMIN":
		return models.UserRoleAdmin
	case "STAFF":
		return models.UserRoleStaff
	default:
		return models.UserRoleAny
	}
}

func denied() *gqlerror.Error {
	return &gqlerror.Error{
		Message: "Access Denied",
		Extensions: map[string]interface{}{
			"code": utils.ErrUnauthorized.Message,
		},
	}
}

// Auth checks the session the SessionMiddleware attached. The device binding
// was already verified there; here only presence and role are enforced.
func Auth(ctx context.Context, role models.UserRole) error {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return denied()
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return denied()
	}
	if role == "" || role == models.UserRoleAny {
		return nil
	}
	current, _ := utils.GetRoleFromContext(ctx)
	if current != string(role) {
		return &gqlerror.Error{
			Message: "Unauthorized",
			Extensions: map[string]interface{}{
				"code": utils.ErrForbidden.Message,
			},
		}
	}
	return nil
}
