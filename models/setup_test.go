package models

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.SetSettings(&config.Settings{
		JwtAccessSecret:          "access-secret",
		JwtRefreshSecret:         "refresh-secret",
		AccessTokenHourLifespan:  24,
		RefreshTokenHourLifespan: 168,
		TrashRetentionDays:       30,
		ImportInsertBatchSize:    2,
	})
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), config.NewGormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.SetDB(db); err != nil {
		t.Fatalf("set db: %v", err)
	}
	if err := MigrateTable(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	config.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { config.SetRedisClient(nil) })
	return mr
}

func shopCtx(shopsId string, userName string) context.Context {
	ctx := context.Background()
	ctx = utils.SetShopsIdInContext(ctx, shopsId)
	ctx = utils.SetUserIdInContext(ctx, userName+"-id")
	ctx = utils.SetUserNameInContext(ctx, userName)
	return ctx
}

func mustLookup(t *testing.T, ctx context.Context, kind DeletedType, name string) string {
	t.Helper()
	var res *ResponseId
	var err error
	input := &NewLookup{Name: name}
	switch kind {
	case DeletedTypeInventoryType:
		res, err = UpsertInventoryType(ctx, input)
	case DeletedTypeBrandType:
		res, err = UpsertInventoryBrand(ctx, input)
	case DeletedTypeBranchType:
		res, err = UpsertInventoryBranch(ctx, input)
	default:
		t.Fatalf("not a lookup kind: %s", kind)
	}
	if err != nil {
		t.Fatalf("upsert %s %q: %v", kind, name, err)
	}
	return res.Id
}

type testRefs struct {
	typeId   string
	brandId  string
	branchId string
}

func mustRefs(t *testing.T, ctx context.Context) testRefs {
	t.Helper()
	return testRefs{
		typeId:   mustLookup(t, ctx, DeletedTypeInventoryType, "Beverages"),
		brandId:  mustLookup(t, ctx, DeletedTypeBrandType, "Acme"),
		branchId: mustLookup(t, ctx, DeletedTypeBranchType, "b1"),
	}
}

func newItem(refs testRefs, name string) *NewInventory {
	branchId := refs.branchId
	return &NewInventory{
		Name:            name,
		InventoryTypeId: refs.typeId,
		BrandTypeId:     refs.brandId,
		BranchId:        &branchId,
		Amount:          5,
	}
}

func mustItem(t *testing.T, ctx context.Context, refs testRefs, name string) string {
	t.Helper()
	res, err := UpsertInventory(ctx, newItem(refs, name))
	if err != nil {
		t.Fatalf("upsert inventory %q: %v", name, err)
	}
	return res.Id
}

func setUpdatedAt(t *testing.T, model any, id string, at time.Time) {
	t.Helper()
	err := config.GetDB().Model(model).Where("id = ?", id).UpdateColumn("updated_at", at).Error
	if err != nil {
		t.Fatalf("set updated_at: %v", err)
	}
}

func expectBusinessError(t *testing.T, err error, want *utils.BusinessError) {
	t.Helper()
	if !utils.IsBusinessError(err, want) {
		t.Fatalf("expected %s, got %v", want.Message, err)
	}
}

func countRows(t *testing.T, model any, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := config.GetDB().Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func expectCode(t *testing.T, err error, code int) {
	t.Helper()
	be := utils.AsBusinessError(err)
	if be == nil || be.Code != code {
		t.Fatalf("expected status %d, got %v", code, err)
	}
}
