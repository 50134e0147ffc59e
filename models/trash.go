package models

import (
	"context"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
)

type ResponseDeletedInventory struct {
	Inventory []*DeletedRecord `json:"inventory"`
	Type      []*DeletedRecord `json:"type"`
	Brand     []*DeletedRecord `json:"brand"`
	Branch    []*DeletedRecord `json:"branch"`
}

type RecoveryInput struct {
	Id   string      `json:"id" validate:"required"`
	Type DeletedType `json:"type" validate:"required"`
	Mode DeletedMode `json:"mode" validate:"required"`
}

// SoftDelete moves a row to the trash. Types, brands and branches still
// referenced by a live item are InUse.
func SoftDelete(ctx context.Context, kind DeletedType, id string) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row, err := fetchOwnedKind(ctx, kind, a.ShopsId, id)
	if err != nil {
		return nil, err
	}
	if row.IsDeleted() {
		return &ResponseId{Id: id}, nil
	}

	if column := kind.referenceColumn(); column != "" {
		count, err := utils.ResourceCountWhere[Inventory](ctx, a.ShopsId, column+" = ? AND deleted = ?", id, false)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.ErrInUse
		}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(row).Updates(map[string]interface{}{
		"deleted":    true,
		"updated_by": a.UserName,
	}).Error
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, a, kind, id, EventActionSoftDeleted)
	return &ResponseId{Id: id}, nil
}

// GetInventoryAllDeleted lists the caller's trash, most recently deleted first.
func GetInventoryAllDeleted(ctx context.Context) (*ResponseDeletedInventory, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	var result ResponseDeletedInventory
	targets := []struct {
		kind DeletedType
		dest *[]*DeletedRecord
	}{
		{DeletedTypeInventory, &result.Inventory},
		{DeletedTypeInventoryType, &result.Type},
		{DeletedTypeBrandType, &result.Brand},
		{DeletedTypeBranchType, &result.Branch},
	}
	db := config.GetDB()
	for _, target := range targets {
		model, err := target.kind.newModel()
		if err != nil {
			return nil, err
		}
		err = db.WithContext(ctx).Model(model).
			Select("id", "name", "created_by", "updated_by", "created_at", "updated_at").
			Where("shops_id = ? AND deleted = ?", shopsId, true).
			Order("updated_at DESC").
			Scan(target.dest).Error
		if err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// RecoveryOrHardDelete resolves a trashed row: RECOVERY puts it back,
// DELETE removes it for good. Rows that are not in the caller's trash are
// Forbidden.
func RecoveryOrHardDelete(ctx context.Context, input *RecoveryInput) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	row, err := fetchOwnedKind(ctx, input.Type, a.ShopsId, input.Id)
	if err != nil {
		return nil, err
	}
	if !row.IsDeleted() {
		return nil, utils.ErrForbidden
	}

	db := config.GetDB()
	switch input.Mode {
	case DeletedModeRecovery:
		if item, ok := row.(*Inventory); ok {
			if err := validateInventoryReferencesLive(ctx, a.ShopsId, item); err != nil {
				return nil, err
			}
		}
		err = db.WithContext(ctx).Model(row).Updates(map[string]interface{}{
			"deleted":    false,
			"updated_by": a.UserName,
		}).Error
		if err != nil {
			return nil, err
		}
		publishEvent(ctx, a, input.Type, input.Id, EventActionRecovered)
	case DeletedModeDelete:
		// trashed items still point at their references until the reaper runs
		if column := input.Type.referenceColumn(); column != "" {
			count, err := utils.ResourceCountWhere[Inventory](ctx, a.ShopsId, column+" = ?", input.Id)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, utils.ErrInUse
			}
		}
		if err := db.WithContext(ctx).Delete(row).Error; err != nil {
			return nil, err
		}
		publishEvent(ctx, a, input.Type, input.Id, EventActionHardDeleted)
	default:
		return nil, utils.NewBadRequest("invalid deleted mode")
	}
	return &ResponseId{Id: input.Id}, nil
}

func validateInventoryReferencesLive(ctx context.Context, shopsId string, item *Inventory) error {
	if err := utils.ValidateResourcesOwned[InventoryType](ctx, shopsId, []string{item.InventoryTypeId}, "inventory type"); err != nil {
		return err
	}
	if err := utils.ValidateResourcesOwned[InventoryBrand](ctx, shopsId, []string{item.BrandTypeId}, "brand"); err != nil {
		return err
	}
	return utils.ValidateResourcesOwned[InventoryBranch](ctx, shopsId, []string{item.BranchId}, "branch")
}
