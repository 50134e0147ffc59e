package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	config.SetSettings(&config.Settings{
		JwtAccessSecret:    "access-secret",
		JwtRefreshSecret:   "refresh-secret",
		TrashRetentionDays: 30,
	})
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:wf_"+name+"?mode=memory&cache=shared"), config.NewGormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.SetDB(db); err != nil {
		t.Fatalf("set db: %v", err)
	}
	if err := models.MigrateTable(); err != nil {
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

// trashedType creates an inventory type and moves it to the trash at deletedAt.
func trashedType(t *testing.T, name string, deletedAt time.Time) string {
	t.Helper()
	ctx := utils.SetShopsIdInContext(context.Background(), "shop-1")
	ctx = utils.SetUserNameInContext(ctx, "alice")
	res, err := models.UpsertInventoryType(ctx, &models.NewLookup{Name: name})
	if err != nil {
		t.Fatalf("upsert type: %v", err)
	}
	if _, err := models.DeleteInventoryType(ctx, res.Id); err != nil {
		t.Fatalf("delete type: %v", err)
	}
	err = config.GetDB().Model(&models.InventoryType{}).Where("id = ?", res.Id).UpdateColumn("updated_at", deletedAt).Error
	if err != nil {
		t.Fatalf("set updated_at: %v", err)
	}
	return res.Id
}

func typeExists(t *testing.T, id string) bool {
	t.Helper()
	var n int64
	if err := config.GetDB().Model(&models.InventoryType{}).Where("id = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n > 0
}

func newTestReaper(now time.Time) *TrashReaper {
	r := NewTrashReaper(config.GetLogger(), config.GetSettings())
	r.Now = func() time.Time { return now }
	r.Interval = 10 * time.Millisecond
	return r
}

func TestTrashReaperSweepsExpiredRows(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := trashedType(t, "Old", now.Add(-31*24*time.Hour))
	recent := trashedType(t, "Recent", now.Add(-2*24*time.Hour))

	res, err := newTestReaper(now).SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Deleted[models.DeletedTypeInventoryType] != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if typeExists(t, expired) || !typeExists(t, recent) {
		t.Fatalf("wrong rows swept")
	}
	if mr.Exists("lock:trash-reaper") {
		t.Fatalf("lock not released")
	}
}

func TestTrashReaperSkipsWhenLockHeld(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := trashedType(t, "Old", now.Add(-40*24*time.Hour))

	if err := mr.Set("lock:trash-reaper", "other-instance"); err != nil {
		t.Fatalf("hold lock: %v", err)
	}
	res, err := newTestReaper(now).SweepOnce(context.Background())
	if err != nil || res != nil {
		t.Fatalf("expected a skipped sweep, got %+v %v", res, err)
	}
	if !typeExists(t, expired) {
		t.Fatalf("row swept while lock was held")
	}
}

func TestTrashReaperRunStopsOnCancel(t *testing.T) {
	setupTestDB(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := trashedType(t, "Old", now.Add(-40*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestReaper(now).Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for typeExists(t, expired) {
		select {
		case <-deadline:
			t.Fatalf("reaper did not sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("reaper did not stop")
	}
}
