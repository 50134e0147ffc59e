package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/inventory_backend/config"
	"gorm.io/gorm"
)

// TenantOwned is implemented by every row that belongs to a shop.
type TenantOwned interface {
	GetShopsId() string
}

// FetchOwned loads a row by id without tenant scoping, then checks the owner.
// A row owned by another shop is Forbidden, never NotFound.
func FetchOwned[T any, PT interface {
	*T
	TenantOwned
}](ctx context.Context, shopsId string, id string) (*T, error) {
	if id == "" {
		return nil, NewBadRequest("id is required")
	}
	var model T
	db := config.GetDB()
	err := db.WithContext(SetSkipTenantScopeInContext(ctx, true)).Where("id = ?", id).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if PT(&model).GetShopsId() != shopsId {
		return nil, ErrForbidden
	}
	return &model, nil
}

// ValidateResourcesOwned checks that every id exists, is live and belongs to
// shopsId. Foreign ids are Forbidden; unknown or trashed ids are BadRequest.
func ValidateResourcesOwned[T any](ctx context.Context, shopsId string, ids []string, label string) error {
	unqIds := UniqueSlice(ids)
	if len(unqIds) == 0 {
		return nil
	}
	var model T
	db := config.GetDB()
	var rows []struct {
		ShopsId string
		Deleted bool
	}
	err := db.WithContext(SetSkipTenantScopeInContext(ctx, true)).Model(&model).
		Select("shops_id", "deleted").
		Where("id IN ?", unqIds).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ShopsId != shopsId {
			return ErrForbidden
		}
	}
	if len(rows) != len(unqIds) {
		return NewBadRequest(label + " not found")
	}
	for _, row := range rows {
		if row.Deleted {
			return NewBadRequest(label + " is in trash")
		}
	}
	return nil
}

// count records, using WHERE shops_id = ? AND $condition
func ResourceCountWhere[T any](ctx context.Context, shopsId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if shopsId != "" {
		dbCtx = dbCtx.Where("shops_id = ?", shopsId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool, len(slice))
	result := make([]T, 0, len(slice))
	var zero T
	for _, v := range slice {
		if v == zero || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
