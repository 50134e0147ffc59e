package models

import "context"

type InventoryType struct {
	Lookup
}

func UpsertInventoryType(ctx context.Context, input *NewLookup) (*ResponseId, error) {
	return upsertLookup(ctx, DeletedTypeInventoryType, input)
}

func DeleteInventoryType(ctx context.Context, id string) (*ResponseId, error) {
	return SoftDelete(ctx, DeletedTypeInventoryType, id)
}

func GetInventoryType(ctx context.Context, id string) (*InventoryType, error) {
	return getLookup[InventoryType](ctx, id)
}

func GetInventoryTypes(ctx context.Context, params *ParamsLookup) ([]*InventoryType, error) {
	return listLookups[InventoryType](ctx, params)
}
