package models

import (
	"context"
	"net/http"
	"time"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
)

// Status is the envelope every inventory operation answers with.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ResponseId struct {
	Id string `json:"id"`
}

var StatusSuccess = Status{Code: http.StatusOK, Message: "success"}

// NewStatus maps an error onto the envelope. Unknown errors are logged here
// and answered with internalError.
func NewStatus(ctx context.Context, moduleName string, funcName string, err error) Status {
	if err == nil {
		return StatusSuccess
	}
	be := utils.AsBusinessError(err)
	if be == utils.ErrInternal {
		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		config.LogError(config.GetLogger(), moduleName, funcName, "unexpected error", map[string]string{"correlation_id": cid}, err)
	}
	return Status{Code: be.Code, Message: be.Message}
}

// TenantResource is the common surface of the four soft-deletable kinds.
type TenantResource interface {
	utils.TenantOwned
	GetID() string
	GetName() string
	IsDeleted() bool
}

// DeletedRecord is one row of the trash view.
type DeletedRecord struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// actor is the authenticated caller a write is attributed to.
type actor struct {
	ShopsId  string
	UserId   string
	UserName string
}

func actorFromContext(ctx context.Context) (*actor, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)
	return &actor{ShopsId: shopsId, UserId: userId, UserName: userName}, nil
}

// publishEvent is best-effort: the write already committed.
func publishEvent(ctx context.Context, a *actor, kind DeletedType, id string, action EventAction) {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	err := config.PublishInventoryEvent(ctx, config.InventoryEvent{
		ShopsId:       a.ShopsId,
		EntityType:    string(kind),
		EntityId:      id,
		Action:        string(action),
		ActorId:       a.UserId,
		CorrelationId: cid,
	})
	if err != nil {
		config.LogWarn(config.GetLogger(), "base.go", "publishEvent", string(kind)+" "+string(action), err)
	}
}
