package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/inventory_backend/models"
	"gorm.io/gorm"
)

// lookupReader batches reads of one reference kind. Trashed rows are
// returned as well so an item in the trash still shows its type name.
type lookupReader[T models.Data] struct {
	db *gorm.DB
}

func (r *lookupReader[T]) getLookups(ctx context.Context, ids []string) []*dataloader.Result[*T] {
	var results []T
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*T](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetInventoryType(ctx context.Context, id string) (*models.InventoryType, error) {
	loaders := For(ctx)
	return loaders.InventoryTypeLoader.Load(ctx, id)()
}

func GetInventoryBrand(ctx context.Context, id string) (*models.InventoryBrand, error) {
	loaders := For(ctx)
	return loaders.InventoryBrandLoader.Load(ctx, id)()
}

func GetInventoryBranch(ctx context.Context, id string) (*models.InventoryBranch, error) {
	loaders := For(ctx)
	return loaders.InventoryBranchLoader.Load(ctx, id)()
}
