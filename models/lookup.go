package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
)

// Lookup is the shared shape of the reference kinds an item points at:
// inventory types, brands and branches.
type Lookup struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ShopsId     string    `gorm:"size:36;not null;index" json:"shopsId"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	LogicalName string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Description string    `gorm:"type:text" json:"description"`
	Deleted     bool      `gorm:"not null;default:false;index" json:"deleted"`
	CreatedBy   string    `gorm:"size:100" json:"createdBy"`
	UpdatedBy   string    `gorm:"size:100" json:"updatedBy"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (l Lookup) GetID() string      { return l.ID }
func (l Lookup) GetShopsId() string { return l.ShopsId }
func (l Lookup) GetName() string    { return l.Name }
func (l Lookup) IsDeleted() bool    { return l.Deleted }

type NewLookup struct {
	ID          *string `json:"id" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,max=100,nosep"`
	Description string  `json:"description" validate:"max=1000"`
}

type ParamsLookup struct {
	Search *string `json:"search"`
	Offset *int    `json:"offset" validate:"omitempty,gte=0"`
	Limit  *int    `json:"limit" validate:"omitempty,gte=1,max=500"`
}

func upsertLookup(ctx context.Context, kind DeletedType, input *NewLookup) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	logicalName, err := utils.EncodeLogicalName(input.Name, a.ShopsId)
	if err != nil {
		return nil, err
	}

	id := utils.DereferencePtr(input.ID)
	var existing TenantResource
	if id != "" {
		existing, err = fetchOwnedKind(ctx, kind, a.ShopsId, id)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return nil, err
		}
	}
	if err := validateLogicalNameFree(ctx, kind, a.ShopsId, logicalName, id); err != nil {
		if existing != nil && errors.Is(err, utils.ErrDuplicated) {
			return nil, utils.NewBadRequest("name is used by another " + kind.label())
		}
		return nil, err
	}

	db := config.GetDB()
	if existing != nil {
		err = db.WithContext(ctx).Model(existing).Updates(map[string]interface{}{
			"name":         input.Name,
			"logical_name": logicalName,
			"description":  input.Description,
			"deleted":      false,
			"updated_by":   a.UserName,
		}).Error
	} else {
		if id == "" {
			id = uuid.NewString()
		}
		var row TenantResource
		row, err = kind.newLookupRow(Lookup{
			ID:          id,
			ShopsId:     a.ShopsId,
			Name:        input.Name,
			LogicalName: logicalName,
			Description: input.Description,
			CreatedBy:   a.UserName,
			UpdatedBy:   a.UserName,
		})
		if err != nil {
			return nil, err
		}
		err = db.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, a, kind, id, EventActionUpserted)
	return &ResponseId{Id: id}, nil
}

// validateLogicalNameFree rejects a live row of the same kind and tenant that
// already uses logicalName. The unique index stays authoritative; this check
// only produces the friendly error. A trashed holder of the name surfaces as
// Duplicated from the index.
func validateLogicalNameFree(ctx context.Context, kind DeletedType, shopsId string, logicalName string, exceptId string) error {
	model, err := kind.newModel()
	if err != nil {
		return err
	}
	db := config.GetDB()
	query := db.WithContext(ctx).Model(model).
		Where("shops_id = ? AND logical_name = ? AND deleted = ?", shopsId, logicalName, false)
	if exceptId != "" {
		query = query.Where("id <> ?", exceptId)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrDuplicated
	}
	return nil
}

func getLookup[T any, PT interface {
	*T
	TenantResource
}](ctx context.Context, id string) (*T, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	row, err := utils.FetchOwned[T, PT](ctx, shopsId, id)
	if err != nil {
		return nil, err
	}
	if PT(row).IsDeleted() {
		return nil, utils.ErrNotFound
	}
	return row, nil
}

func listLookups[T any](ctx context.Context, params *ParamsLookup) ([]*T, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	if params == nil {
		params = &ParamsLookup{}
	}
	if err := utils.ValidateStruct(params); err != nil {
		return nil, err
	}

	var model T
	var results []*T
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model).Where("shops_id = ? AND deleted = ?", shopsId, false)
	if search := strings.TrimSpace(utils.DereferencePtr(params.Search)); search != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+search+"%")
	}
	if params.Offset != nil {
		dbCtx = dbCtx.Offset(*params.Offset)
	}
	if params.Limit != nil {
		dbCtx = dbCtx.Limit(*params.Limit)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
