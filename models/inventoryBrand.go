package models

import "context"

type InventoryBrand struct {
	Lookup
}

func UpsertInventoryBrand(ctx context.Context, input *NewLookup) (*ResponseId, error) {
	return upsertLookup(ctx, DeletedTypeBrandType, input)
}

func DeleteInventoryBrand(ctx context.Context, id string) (*ResponseId, error) {
	return SoftDelete(ctx, DeletedTypeBrandType, id)
}

func GetInventoryBrand(ctx context.Context, id string) (*InventoryBrand, error) {
	return getLookup[InventoryBrand](ctx, id)
}

func GetInventoryBrands(ctx context.Context, params *ParamsLookup) ([]*InventoryBrand, error) {
	return listLookups[InventoryBrand](ctx, params)
}
