package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	InventoryTypeLoader   *dataloader.Loader[string, *models.InventoryType]
	InventoryBrandLoader  *dataloader.Loader[string, *models.InventoryBrand]
	InventoryBranchLoader *dataloader.Loader[string, *models.InventoryBranch]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	// define the data loader
	inventoryTypeReader := &lookupReader[models.InventoryType]{db: conn}
	inventoryBrandReader := &lookupReader[models.InventoryBrand]{db: conn}
	inventoryBranchReader := &lookupReader[models.InventoryBranch]{db: conn}

	return &Loaders{
		InventoryTypeLoader:   dataloader.NewBatchedLoader(inventoryTypeReader.getLookups, dataloader.WithWait[string, *models.InventoryType](time.Millisecond)),
		InventoryBrandLoader:  dataloader.NewBatchedLoader(inventoryBrandReader.getLookups, dataloader.WithWait[string, *models.InventoryBrand](time.Millisecond)),
		InventoryBranchLoader: dataloader.NewBatchedLoader(inventoryBranchReader.getLookups, dataloader.WithWait[string, *models.InventoryBranch](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithLoaders(c.Request.Context(), NewLoaders(config.GetDB()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// WithLoaders attaches loaders outside of gin, e.g. in tests and the gRPC server.
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []string) []*dataloader.Result[*T] {
	resultMap := make(map[string]T, len(results))
	for _, result := range results {
		resultMap[result.GetID()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
