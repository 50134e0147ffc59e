package models

import (
	"net/http"
	"testing"

	"github.com/mmdatafocus/inventory_backend/utils"
)

func TestUpsertInventoryTypeDuplicate(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")

	id := mustLookup(t, ctx, DeletedTypeInventoryType, "Beverages")
	if id == "" {
		t.Fatalf("expected an id")
	}
	_, err := UpsertInventoryType(ctx, &NewLookup{Name: "Beverages"})
	expectBusinessError(t, err, utils.ErrDuplicated)

	// the same name in another shop is a different key
	if _, err := UpsertInventoryType(shopCtx("shop-2", "bob"), &NewLookup{Name: "Beverages"}); err != nil {
		t.Fatalf("other shop: %v", err)
	}
}

func TestUpsertLookupRejectsSeparator(t *testing.T) {
	setupTestDB(t)
	_, err := UpsertInventoryBrand(shopCtx("shop-1", "alice"), &NewLookup{Name: "a|b"})
	expectCode(t, err, http.StatusBadRequest)
	if n := countRows(t, &InventoryBrand{}, "1 = 1"); n != 0 {
		t.Fatalf("expected no brand rows, got %d", n)
	}
}

func TestUpsertLookupRenameConflict(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	mustLookup(t, ctx, DeletedTypeBranchType, "North")
	southId := mustLookup(t, ctx, DeletedTypeBranchType, "South")

	_, err := UpsertInventoryBranch(ctx, &NewLookup{ID: &southId, Name: "North"})
	expectCode(t, err, http.StatusBadRequest)

	res, err := UpsertInventoryBranch(ctx, &NewLookup{ID: &southId, Name: "South East", Description: "renamed"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	branch, err := GetInventoryBranch(ctx, res.Id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if branch.Name != "South East" || branch.Description != "renamed" || branch.UpdatedBy != "alice" {
		t.Fatalf("unexpected branch %+v", branch)
	}
}

func TestUpsertLookupCrossTenant(t *testing.T) {
	setupTestDB(t)
	id := mustLookup(t, shopCtx("shop-1", "alice"), DeletedTypeInventoryType, "Snacks")
	other := shopCtx("shop-2", "mallory")

	_, err := UpsertInventoryType(other, &NewLookup{ID: &id, Name: "Hijacked"})
	expectBusinessError(t, err, utils.ErrForbidden)

	_, err = GetInventoryType(other, id)
	expectBusinessError(t, err, utils.ErrForbidden)

	_, err = DeleteInventoryType(other, id)
	expectBusinessError(t, err, utils.ErrForbidden)

	row, err := GetInventoryType(shopCtx("shop-1", "alice"), id)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if row.Name != "Snacks" || row.Deleted {
		t.Fatalf("row changed by another shop: %+v", row)
	}

	_, err = GetInventoryType(other, "missing-id")
	expectBusinessError(t, err, utils.ErrNotFound)
}

func TestTrashedLookupNameIsDuplicated(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	id := mustLookup(t, ctx, DeletedTypeBrandType, "Acme")
	if _, err := DeleteInventoryBrand(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := UpsertInventoryBrand(ctx, &NewLookup{Name: "Acme"})
	expectBusinessError(t, err, utils.ErrDuplicated)
}

func TestGetInventoryTypesListsLiveRows(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	mustLookup(t, ctx, DeletedTypeInventoryType, "Drinks")
	mustLookup(t, ctx, DeletedTypeInventoryType, "Dry goods")
	trashed := mustLookup(t, ctx, DeletedTypeInventoryType, "Dairy")
	mustLookup(t, shopCtx("shop-2", "bob"), DeletedTypeInventoryType, "Drinks")
	if _, err := DeleteInventoryType(ctx, trashed); err != nil {
		t.Fatalf("delete: %v", err)
	}

	search := "Dr"
	limit := 1
	rows, err := GetInventoryTypes(ctx, &ParamsLookup{Search: &search})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Drinks" || rows[1].Name != "Dry goods" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows, err = GetInventoryTypes(ctx, &ParamsLookup{Limit: &limit})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}
