package models

import "context"

// InventoryBranch is the shop location an item is stocked at. Items may
// leave the branch empty.
type InventoryBranch struct {
	Lookup
}

func (InventoryBranch) TableName() string {
	return "inventory_branches"
}

func UpsertInventoryBranch(ctx context.Context, input *NewLookup) (*ResponseId, error) {
	return upsertLookup(ctx, DeletedTypeBranchType, input)
}

func DeleteInventoryBranch(ctx context.Context, id string) (*ResponseId, error) {
	return SoftDelete(ctx, DeletedTypeBranchType, id)
}

func GetInventoryBranch(ctx context.Context, id string) (*InventoryBranch, error) {
	return getLookup[InventoryBranch](ctx, id)
}

func GetInventoryBranches(ctx context.Context, params *ParamsLookup) ([]*InventoryBranch, error) {
	return listLookups[InventoryBranch](ctx, params)
}
