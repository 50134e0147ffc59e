package middlewares

import (
	"context"
	"testing"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
)

func TestLookupLoaders(t *testing.T) {
	setupTestDB(t)
	ctx := utils.SetShopsIdInContext(context.Background(), "shop-1")
	ctx = utils.SetUserNameInContext(ctx, "alice")

	beverages, err := models.UpsertInventoryType(ctx, &models.NewLookup{Name: "Beverages"})
	if err != nil {
		t.Fatalf("upsert type: %v", err)
	}
	snacks, err := models.UpsertInventoryType(ctx, &models.NewLookup{Name: "Snacks"})
	if err != nil {
		t.Fatalf("upsert type: %v", err)
	}
	foreignCtx := utils.SetShopsIdInContext(context.Background(), "shop-2")
	foreign, err := models.UpsertInventoryType(foreignCtx, &models.NewLookup{Name: "Theirs"})
	if err != nil {
		t.Fatalf("upsert type: %v", err)
	}

	ctx = WithLoaders(ctx, NewLoaders(config.GetDB()))
	types := make([]*models.InventoryType, 0, 4)
	for _, id := range []string{beverages.Id, snacks.Id, "missing", foreign.Id} {
		typ, err := GetInventoryType(ctx, id)
		if err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
		types = append(types, typ)
	}
	if types[0].Name != "Beverages" || types[1].Name != "Snacks" {
		t.Fatalf("unexpected types %+v %+v", types[0], types[1])
	}
	// the tenant guard hides other shops' rows like missing ones
	for _, placeholder := range types[2:] {
		if !placeholder.Deleted || placeholder.Name != "" {
			t.Fatalf("expected placeholder, got %+v", placeholder)
		}
	}

	brand, err := GetInventoryBrand(ctx, "missing")
	if err != nil || brand.ID != "missing" || !brand.Deleted {
		t.Fatalf("unexpected brand %+v %v", brand, err)
	}
}
