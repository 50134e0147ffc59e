package models

import (
	"context"

	"github.com/mmdatafocus/inventory_backend/utils"
)

// newModel returns an empty row of the kind for gorm to scan into.
func (t DeletedType) newModel() (TenantResource, error) {
	switch t {
	case DeletedTypeInventory:
		return &Inventory{}, nil
	case DeletedTypeInventoryType:
		return &InventoryType{}, nil
	case DeletedTypeBrandType:
		return &InventoryBrand{}, nil
	case DeletedTypeBranchType:
		return &InventoryBranch{}, nil
	}
	return nil, utils.NewBadRequest("invalid deleted type")
}

func (t DeletedType) newLookupRow(l Lookup) (TenantResource, error) {
	switch t {
	case DeletedTypeInventoryType:
		return &InventoryType{Lookup: l}, nil
	case DeletedTypeBrandType:
		return &InventoryBrand{Lookup: l}, nil
	case DeletedTypeBranchType:
		return &InventoryBranch{Lookup: l}, nil
	}
	return nil, utils.NewBadRequest("invalid lookup type")
}

// referenceColumn is the inventories column pointing at the kind.
// Items themselves are not referenced.
func (t DeletedType) referenceColumn() string {
	switch t {
	case DeletedTypeInventoryType:
		return "inventory_type_id"
	case DeletedTypeBrandType:
		return "brand_type_id"
	case DeletedTypeBranchType:
		return "branch_id"
	}
	return ""
}

// fetchOwnedKind is FetchOwned for a kind chosen at runtime.
func fetchOwnedKind(ctx context.Context, kind DeletedType, shopsId string, id string) (TenantResource, error) {
	switch kind {
	case DeletedTypeInventory:
		return fetchOwned[Inventory](ctx, shopsId, id)
	case DeletedTypeInventoryType:
		return fetchOwned[InventoryType](ctx, shopsId, id)
	case DeletedTypeBrandType:
		return fetchOwned[InventoryBrand](ctx, shopsId, id)
	case DeletedTypeBranchType:
		return fetchOwned[InventoryBranch](ctx, shopsId, id)
	}
	return nil, utils.NewBadRequest("invalid deleted type")
}

func fetchOwned[T any, PT interface {
	*T
	TenantResource
}](ctx context.Context, shopsId string, id string) (TenantResource, error) {
	row, err := utils.FetchOwned[T, PT](ctx, shopsId, id)
	if err != nil {
		return nil, err
	}
	return PT(row), nil
}

func (t DeletedType) label() string {
	switch t {
	case DeletedTypeInventory:
		return "inventory"
	case DeletedTypeInventoryType:
		return "inventory type"
	case DeletedTypeBrandType:
		return "brand"
	case DeletedTypeBranchType:
		return "branch"
	}
	return string(t)
}
