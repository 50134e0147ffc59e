package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
)

const trashReaperActor = "trash-reaper"

// sweepOrder removes parents first; see referencedByKeptItems.
var sweepOrder = []DeletedType{
	DeletedTypeBrandType,
	DeletedTypeInventoryType,
	DeletedTypeBranchType,
	DeletedTypeInventory,
}

type SweepResult struct {
	Deleted map[DeletedType]int `json:"deleted"`
	Skipped map[DeletedType]int `json:"skipped"`
}

type sweepRow struct {
	ID      string
	ShopsId string
}

// SweepExpiredTrash hard deletes every trashed row, across all shops, whose
// last update is at least retention before now. A parent row still referenced
// by an item that survives this sweep is kept for a later run. A failing kind
// is logged and does not stop the others; the joined error is returned.
func SweepExpiredTrash(ctx context.Context, now time.Time, retention time.Duration) (*SweepResult, error) {
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	cutoff := now.Add(-retention)
	result := &SweepResult{
		Deleted: make(map[DeletedType]int),
		Skipped: make(map[DeletedType]int),
	}
	logger := config.GetLogger()

	var errs []error
	for _, kind := range sweepOrder {
		deleted, skipped, err := sweepKind(ctx, kind, cutoff)
		result.Deleted[kind] = len(deleted)
		result.Skipped[kind] = skipped
		if err != nil {
			config.LogError(logger, "trashSweep.go", "SweepExpiredTrash", "sweep "+string(kind), cutoff, err)
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		for _, row := range deleted {
			publishEvent(ctx, &actor{ShopsId: row.ShopsId, UserId: trashReaperActor}, kind, row.ID, EventActionHardDeleted)
		}
	}
	return result, errors.Join(errs...)
}

func sweepKind(ctx context.Context, kind DeletedType, cutoff time.Time) ([]sweepRow, int, error) {
	model, err := kind.newModel()
	if err != nil {
		return nil, 0, err
	}
	db := config.GetDB()

	var expired []sweepRow
	err = db.WithContext(ctx).Model(model).
		Select("id", "shops_id").
		Where("deleted = ? AND updated_at <= ?", true, cutoff).
		Scan(&expired).Error
	if err != nil || len(expired) == 0 {
		return nil, 0, err
	}

	if column := kind.referenceColumn(); column != "" {
		kept, err := referencedByKeptItems(ctx, column, expired, cutoff)
		if err != nil {
			return nil, 0, err
		}
		candidates := expired[:0]
		for _, row := range expired {
			if !kept[row.ID] {
				candidates = append(candidates, row)
			}
		}
		skipped := len(expired) - len(candidates)
		expired = candidates
		if len(expired) == 0 {
			return nil, skipped, nil
		}
		deleted, err := deleteSweepRows(ctx, kind, expired)
		return deleted, skipped, err
	}

	deleted, err := deleteSweepRows(ctx, kind, expired)
	return deleted, 0, err
}

// referencedByKeptItems returns the ids still referenced through column by
// an item that this sweep does not remove: live items and trashed items
// younger than the cutoff.
func referencedByKeptItems(ctx context.Context, column string, rows []sweepRow, cutoff time.Time) (map[string]bool, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var refs []string
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Inventory{}).
		Where(column+" IN ?", ids).
		Where("deleted = ? OR updated_at > ?", false, cutoff).
		Distinct(column).
		Pluck(column, &refs).Error
	if err != nil {
		return nil, err
	}
	kept := make(map[string]bool, len(refs))
	for _, ref := range refs {
		kept[ref] = true
	}
	return kept, nil
}

func deleteSweepRows(ctx context.Context, kind DeletedType, rows []sweepRow) ([]sweepRow, error) {
	model, err := kind.newModel()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	db := config.GetDB()
	// deleted = true guards against a recovery racing the sweep
	res := db.WithContext(ctx).Where("id IN ? AND deleted = ?", ids, true).Delete(model)
	if res.Error != nil {
		return nil, res.Error
	}
	if int(res.RowsAffected) != len(rows) {
		config.LogWarn(config.GetLogger(), "trashSweep.go", "deleteSweepRows", string(kind),
			fmt.Errorf("expected %d rows, deleted %d", len(rows), res.RowsAffected))
	}
	return rows, nil
}
