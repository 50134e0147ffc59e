package models

import (
	"net/http"
	"testing"

	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

func TestInventoryScenario(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)

	colaId := mustItem(t, ctx, refs, "Cola")

	_, err := UpsertInventory(ctx, newItem(refs, "Cola"))
	expectBusinessError(t, err, utils.ErrDuplicated)

	_, err = DeleteInventoryType(ctx, refs.typeId)
	expectBusinessError(t, err, utils.ErrInUse)
	if _, err := GetInventoryType(ctx, refs.typeId); err != nil {
		t.Fatalf("type must survive a rejected delete: %v", err)
	}

	item, err := GetInventory(ctx, colaId)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Name != "Cola" || item.BranchId != refs.branchId || item.CreatedBy != "alice" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestUpsertInventoryNameScopedByBranch(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	mustItem(t, ctx, refs, "Cola")

	other := refs
	other.branchId = mustLookup(t, ctx, DeletedTypeBranchType, "b2")
	mustItem(t, ctx, other, "Cola")

	noBranch := newItem(refs, "Cola")
	noBranch.BranchId = nil
	if _, err := UpsertInventory(ctx, noBranch); err != nil {
		t.Fatalf("item without branch: %v", err)
	}
	if n := countRows(t, &Inventory{}, "name = ?", "Cola"); n != 3 {
		t.Fatalf("expected 3 Cola rows, got %d", n)
	}
}

func TestUpsertInventoryForeignReference(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	foreignType := mustLookup(t, shopCtx("shop-2", "bob"), DeletedTypeInventoryType, "Theirs")

	input := newItem(refs, "Cola")
	input.InventoryTypeId = foreignType
	_, err := UpsertInventory(ctx, input)
	expectBusinessError(t, err, utils.ErrForbidden)

	input = newItem(refs, "Cola")
	input.BrandTypeId = "unknown"
	_, err = UpsertInventory(ctx, input)
	expectCode(t, err, http.StatusBadRequest)

	if n := countRows(t, &Inventory{}, "1 = 1"); n != 0 {
		t.Fatalf("expected no write, got %d rows", n)
	}
}

func TestUpsertInventoryUpdate(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	id := mustItem(t, ctx, refs, "Cola")
	mustItem(t, ctx, refs, "Soda")

	clash := newItem(refs, "Soda")
	clash.ID = &id
	_, err := UpsertInventory(ctx, clash)
	expectCode(t, err, http.StatusBadRequest)

	width := 2.5
	update := newItem(refs, "Cola Zero")
	update.ID = &id
	update.Price = decimal.RequireFromString("1.25")
	update.Size = &utils.Size{Width: &width}
	if _, err := UpsertInventory(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	item, err := GetInventory(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Name != "Cola Zero" || !item.Price.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.PackedSize != "2.5|0|0|0" || *item.Size.Width != 2.5 {
		t.Fatalf("unexpected size %q", item.PackedSize)
	}

	_, err = UpsertInventory(shopCtx("shop-2", "mallory"), update)
	expectBusinessError(t, err, utils.ErrForbidden)
}

func TestFavoriteInventory(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	id := mustItem(t, ctx, refs, "Cola")

	if _, err := FavoriteInventory(ctx, id); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	item, _ := GetInventory(ctx, id)
	if !item.Favorite {
		t.Fatalf("expected favorite after first toggle")
	}
	if _, err := FavoriteInventory(ctx, id); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	item, _ = GetInventory(ctx, id)
	if item.Favorite {
		t.Fatalf("expected toggle back")
	}

	_, err := FavoriteInventory(shopCtx("shop-2", "mallory"), id)
	expectBusinessError(t, err, utils.ErrForbidden)
	item, _ = GetInventory(ctx, id)
	if item.Favorite {
		t.Fatalf("cross-tenant toggle applied")
	}
}

func TestGetInventories(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	for _, name := range []string{"Apple juice", "Orange juice", "Water", "Milk"} {
		mustItem(t, ctx, refs, name)
	}
	trashed := mustItem(t, ctx, refs, "Old juice")
	if _, err := DeleteInventory(ctx, trashed); err != nil {
		t.Fatalf("delete: %v", err)
	}
	liked := mustItem(t, ctx, refs, "Lemon juice")
	if _, err := FavoriteInventory(ctx, liked); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	mustItem(t, shopCtx("shop-2", "bob"), mustRefs(t, shopCtx("shop-2", "bob")), "Grape juice")

	search := "juice"
	limit := 2
	res, err := GetInventories(ctx, &ParamsInventory{Search: &search, Limit: &limit})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalRow != 3 || res.TotalPage != 2 || len(res.Inventories) != 2 || res.PageNo != 1 || res.PageLimit != 2 {
		t.Fatalf("unexpected page %+v", res)
	}

	like := FavoriteStatusLike
	res, err = GetInventories(ctx, &ParamsInventory{Favorite: &like})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalRow != 1 || res.Inventories[0].ID != liked {
		t.Fatalf("unexpected favorites %+v", res)
	}

	res, err = GetInventories(ctx, &ParamsInventory{Type: []string{"other"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalRow != 0 {
		t.Fatalf("type filter ignored: %+v", res)
	}

	names, err := GetInventoryNames(ctx)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 5 {
		t.Fatalf("expected 5 live names, got %d", len(names))
	}
}
