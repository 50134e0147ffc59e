package models

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

func uploadRow(refs testRefs, csvId string, name string) *NewInventory {
	row := newItem(refs, name)
	row.ID = &csvId
	return row
}

func expectUpload(t *testing.T, res *UploadInventoryResponse, err error, reason UploadReason) {
	t.Helper()
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Success || res.Reason != reason {
		t.Fatalf("expected reason %q, got %+v", reason, res)
	}
}

func TestImportInventories(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)

	rows := []*NewInventory{
		uploadRow(refs, "1", "Cola"),
		uploadRow(refs, "2", "Soda"),
		uploadRow(refs, "3", "Water"),
	}
	rows[1].Price = decimal.RequireFromString("2.5")
	res, err := ImportInventories(ctx, &UploadInventoryInput{UploadDatas: rows, FileName: "stock.xlsx"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !res.Success || res.Id == "" {
		t.Fatalf("unexpected response %+v", res)
	}
	if n := countRows(t, &Inventory{}, "inventory_file_id = ?", res.Id); n != 3 {
		t.Fatalf("expected 3 tagged rows, got %d", n)
	}

	files, err := GetUploadFiles(ctx)
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 1 || files[0].Name != "stock.xlsx" {
		t.Fatalf("unexpected files %+v", files)
	}
	file, err := GetUploadFile(ctx, res.Id)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if file.FileName != "stock.xlsx" || len(file.Data) != 3 {
		t.Fatalf("unexpected file %+v", file)
	}
	for _, row := range file.Data {
		if row.Type != "Beverages" || row.Brand != "Acme" || row.Branch != "b1" {
			t.Fatalf("unexpected row %+v", row)
		}
		if row.Name == "Soda" && (row.Id != "2" || row.Price != "2.5") {
			t.Fatalf("unexpected row %+v", row)
		}
	}

	_, err = GetUploadFile(shopCtx("shop-2", "mallory"), res.Id)
	expectBusinessError(t, err, utils.ErrForbidden)

	again, err := ImportInventories(ctx, &UploadInventoryInput{
		UploadDatas: []*NewInventory{uploadRow(refs, "1", "Juice")},
		FileName:    " stock.xlsx ",
	})
	expectUpload(t, again, err, UploadReasonDuplicated)
}

func TestImportInventoriesLost(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	mustItem(t, ctx, refs, "Cola")

	res, err := ImportInventories(ctx, &UploadInventoryInput{
		UploadDatas: []*NewInventory{
			uploadRow(refs, "1", "Soda"),
			uploadRow(refs, "2", "Water"),
			uploadRow(refs, "3", "Cola"),
		},
		FileName: "collision.xlsx",
	})
	expectUpload(t, res, err, UploadReasonLost)
	if n := countRows(t, &Inventory{}, "inventory_file_id = ?", res.Id); n != 0 {
		t.Fatalf("partial batch left %d rows", n)
	}
	if n := countRows(t, &InventoryFile{}, "id = ?", res.Id); n != 0 {
		t.Fatalf("failed batch still recorded")
	}

	res, err = ImportInventories(ctx, &UploadInventoryInput{
		UploadDatas: []*NewInventory{
			uploadRow(refs, "1", "Tea"),
			uploadRow(refs, "2", "Tea"),
		},
		FileName: "twice.xlsx",
	})
	expectUpload(t, res, err, UploadReasonLost)
	if n := countRows(t, &Inventory{}, "name = ?", "Tea"); n != 0 {
		t.Fatalf("intra-batch duplicate left %d rows", n)
	}

	// the file name is free again after a rollback
	res, err = ImportInventories(ctx, &UploadInventoryInput{
		UploadDatas: []*NewInventory{uploadRow(refs, "1", "Tea")},
		FileName:    "twice.xlsx",
	})
	if err != nil || !res.Success {
		t.Fatalf("retry: %+v %v", res, err)
	}
}

func TestImportInventoriesRejectsRows(t *testing.T) {
	setupTestDB(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)
	foreign := mustRefs(t, shopCtx("shop-2", "bob"))

	res, err := ImportInventories(ctx, &UploadInventoryInput{FileName: "empty.xlsx"})
	expectUpload(t, res, err, UploadReasonEmpty)

	bad := uploadRow(refs, "1", "Bad|Name")
	res, err = ImportInventories(ctx, &UploadInventoryInput{UploadDatas: []*NewInventory{bad}, FileName: "bad.xlsx"})
	expectUpload(t, res, err, UploadReasonInvalid)

	negative := uploadRow(refs, "1", "Cola")
	negative.Price = decimal.RequireFromString("-1")
	res, err = ImportInventories(ctx, &UploadInventoryInput{UploadDatas: []*NewInventory{negative}, FileName: "neg.xlsx"})
	expectUpload(t, res, err, UploadReasonInvalid)

	stolen := uploadRow(refs, "1", "Cola")
	stolen.BrandTypeId = foreign.brandId
	res, err = ImportInventories(ctx, &UploadInventoryInput{
		UploadDatas: []*NewInventory{uploadRow(refs, "2", "Soda"), stolen},
		FileName:    "foreign.xlsx",
	})
	expectUpload(t, res, err, UploadReasonForbidden)

	_, err = ImportInventories(ctx, &UploadInventoryInput{UploadDatas: []*NewInventory{uploadRow(refs, "1", "Cola")}, FileName: "  "})
	expectCode(t, err, http.StatusBadRequest)

	if n := countRows(t, &Inventory{}, "shops_id = ?", "shop-1"); n != 0 {
		t.Fatalf("rejected uploads wrote %d rows", n)
	}
	if n := countRows(t, &InventoryFile{}, "1 = 1"); n != 0 {
		t.Fatalf("rejected uploads recorded %d files", n)
	}
}

func TestImportInventoriesLockHeld(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	ctx := shopCtx("shop-1", "alice")
	refs := mustRefs(t, ctx)

	lock, err := config.GetRedisLock().Obtain(context.Background(), "lock:import:shop-1", time.Minute, nil)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	input := &UploadInventoryInput{UploadDatas: []*NewInventory{uploadRow(refs, "1", "Cola")}, FileName: "a.xlsx"}
	_, err = ImportInventories(ctx, input)
	expectBusinessError(t, err, ErrImportInProgress)

	// another shop is not blocked
	other := mustRefs(t, shopCtx("shop-2", "bob"))
	res, err := ImportInventories(shopCtx("shop-2", "bob"), &UploadInventoryInput{
		UploadDatas: []*NewInventory{uploadRow(other, "1", "Cola")},
		FileName:    "a.xlsx",
	})
	if err != nil || !res.Success {
		t.Fatalf("other shop: %+v %v", res, err)
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	res, err = ImportInventories(ctx, input)
	if err != nil || !res.Success {
		t.Fatalf("after release: %+v %v", res, err)
	}
}
