package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultInventoryLimit = 20

type Inventory struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	ShopsId         string          `gorm:"size:36;not null;index" json:"shopsId"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	LogicalName     string          `gorm:"size:255;not null;uniqueIndex" json:"-"`
	InventoryTypeId string          `gorm:"size:36;not null;index" json:"inventoryTypeId"`
	BrandTypeId     string          `gorm:"size:36;not null;index" json:"brandTypeId"`
	BranchId        string          `gorm:"size:36;not null;default:'';index" json:"branchId"`
	Amount          int             `gorm:"not null;default:0" json:"amount"`
	Sold            int             `gorm:"not null;default:0" json:"sold"`
	Sku             string          `gorm:"size:100" json:"sku"`
	SerialNumber    string          `gorm:"size:100" json:"serialNumber"`
	ReorderLevel    int             `gorm:"not null;default:0" json:"reorderLevel"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	PriceMember     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"priceMember"`
	PackedSize      string          `gorm:"column:size;size:100" json:"-"`
	Size            *utils.Size     `gorm:"-" json:"size"`
	Favorite        bool            `gorm:"not null;default:false" json:"favorite"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
	Description     string          `gorm:"type:text" json:"description"`
	InventoryFileId *string         `gorm:"size:36;index" json:"inventoryFileId"`
	CsvId           string          `gorm:"size:100" json:"csvId"`
	Deleted         bool            `gorm:"not null;default:false;index" json:"deleted"`
	CreatedBy       string          `gorm:"size:100" json:"createdBy"`
	UpdatedBy       string          `gorm:"size:100" json:"updatedBy"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	InventoryType *InventoryType   `gorm:"-" json:"inventoryType,omitempty"`
	BrandType     *InventoryBrand  `gorm:"-" json:"brandType,omitempty"`
	Branch        *InventoryBranch `gorm:"-" json:"branch,omitempty"`
}

func (i *Inventory) AfterFind(tx *gorm.DB) error {
	i.Size = utils.UnpackSize(i.PackedSize)
	return nil
}

type NewInventory struct {
	ID              *string         `json:"id" validate:"omitempty,uuid"`
	Name            string          `json:"name" validate:"required,max=100,nosep"`
	InventoryTypeId string          `json:"inventoryTypeId" validate:"required,max=36"`
	BrandTypeId     string          `json:"brandTypeId" validate:"required,max=36"`
	BranchId        *string         `json:"branchId" validate:"omitempty,max=36,nosep"`
	Favorite        *bool           `json:"favorite"`
	Amount          int             `json:"amount" validate:"gte=0"`
	Sku             string          `json:"sku" validate:"max=100"`
	SerialNumber    string          `json:"serialNumber" validate:"max=100"`
	ReorderLevel    int             `json:"reorderLevel" validate:"gte=0"`
	Size            *utils.Size     `json:"size"`
	Price           decimal.Decimal `json:"price"`
	PriceMember     decimal.Decimal `json:"priceMember"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
	Description     string          `json:"description" validate:"max=1000"`
}

type ParamsInventory struct {
	Search   *string         `json:"search"`
	Favorite *FavoriteStatus `json:"favorite"`
	Type     []string        `json:"type"`
	Brand    []string        `json:"brand"`
	Branch   []string        `json:"branch"`
	PageNo   *int            `json:"pageNo" validate:"omitempty,gte=1"`
	Limit    *int            `json:"limit" validate:"omitempty,gte=1,max=500"`
}

type ResponseInventories struct {
	Inventories []*Inventory `json:"inventories"`
	PageLimit   int          `json:"pageLimit"`
	PageNo      int          `json:"pageNo"`
	TotalPage   int          `json:"totalPage"`
	TotalRow    int          `json:"totalRow"`
}

type InventoryName struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (input *NewInventory) validate(ctx context.Context, shopsId string) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() || input.PriceMember.IsNegative() {
		return utils.NewBadRequest("price must not be negative")
	}
	if err := utils.ValidateResourcesOwned[InventoryType](ctx, shopsId, []string{input.InventoryTypeId}, "inventory type"); err != nil {
		return err
	}
	if err := utils.ValidateResourcesOwned[InventoryBrand](ctx, shopsId, []string{input.BrandTypeId}, "brand"); err != nil {
		return err
	}
	if branchId := utils.DereferencePtr(input.BranchId); branchId != "" {
		if err := utils.ValidateResourcesOwned[InventoryBranch](ctx, shopsId, []string{branchId}, "branch"); err != nil {
			return err
		}
	}
	return nil
}

// UpsertInventory creates the item when the id is absent or unknown and
// updates it otherwise. An update always clears the deleted flag.
func UpsertInventory(ctx context.Context, input *NewInventory) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, a.ShopsId); err != nil {
		return nil, err
	}
	branchId := strings.TrimSpace(utils.DereferencePtr(input.BranchId))
	logicalName, err := utils.EncodeLogicalName(input.Name, branchId, a.ShopsId)
	if err != nil {
		return nil, err
	}

	id := utils.DereferencePtr(input.ID)
	var existing *Inventory
	if id != "" {
		existing, err = utils.FetchOwned[Inventory](ctx, a.ShopsId, id)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return nil, err
		}
	}
	if err := validateLogicalNameFree(ctx, DeletedTypeInventory, a.ShopsId, logicalName, id); err != nil {
		if existing != nil && errors.Is(err, utils.ErrDuplicated) {
			return nil, utils.NewBadRequest("name is used by another inventory")
		}
		return nil, err
	}

	db := config.GetDB()
	if existing != nil {
		updates := map[string]interface{}{
			"name":              input.Name,
			"logical_name":      logicalName,
			"inventory_type_id": input.InventoryTypeId,
			"brand_type_id":     input.BrandTypeId,
			"branch_id":         branchId,
			"amount":            input.Amount,
			"sku":               input.Sku,
			"serial_number":     input.SerialNumber,
			"reorder_level":     input.ReorderLevel,
			"price":             input.Price,
			"price_member":      input.PriceMember,
			"size":              utils.PackSize(input.Size),
			"expiry_date":       input.ExpiryDate,
			"description":       input.Description,
			"deleted":           false,
			"updated_by":        a.UserName,
		}
		if input.Favorite != nil {
			updates["favorite"] = *input.Favorite
		}
		err = db.WithContext(ctx).Model(existing).Updates(updates).Error
	} else {
		if id == "" {
			id = uuid.NewString()
		}
		row := Inventory{
			ID:              id,
			ShopsId:         a.ShopsId,
			Name:            input.Name,
			LogicalName:     logicalName,
			InventoryTypeId: input.InventoryTypeId,
			BrandTypeId:     input.BrandTypeId,
			BranchId:        branchId,
			Amount:          input.Amount,
			Sku:             input.Sku,
			SerialNumber:    input.SerialNumber,
			ReorderLevel:    input.ReorderLevel,
			Price:           input.Price,
			PriceMember:     input.PriceMember,
			PackedSize:      utils.PackSize(input.Size),
			Favorite:        utils.DereferencePtr(input.Favorite),
			ExpiryDate:      input.ExpiryDate,
			Description:     input.Description,
			CreatedBy:       a.UserName,
			UpdatedBy:       a.UserName,
		}
		err = db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, a, DeletedTypeInventory, id, EventActionUpserted)
	return &ResponseId{Id: id}, nil
}

func DeleteInventory(ctx context.Context, id string) (*ResponseId, error) {
	return SoftDelete(ctx, DeletedTypeInventory, id)
}

// FavoriteInventory flips the favorite flag of a live item.
func FavoriteInventory(ctx context.Context, id string) (*ResponseId, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row, err := utils.FetchOwned[Inventory](ctx, a.ShopsId, id)
	if err != nil {
		return nil, err
	}
	if row.Deleted {
		return nil, utils.ErrNotFound
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(row).Updates(map[string]interface{}{
		"favorite":   !row.Favorite,
		"updated_by": a.UserName,
	}).Error
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, a, DeletedTypeInventory, id, EventActionFavorited)
	return &ResponseId{Id: id}, nil
}

func GetInventory(ctx context.Context, id string) (*Inventory, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	row, err := utils.FetchOwned[Inventory](ctx, shopsId, id)
	if err != nil {
		return nil, err
	}
	if row.Deleted {
		return nil, utils.ErrNotFound
	}
	return row, nil
}

// GetInventories pages live items, newest first.
func GetInventories(ctx context.Context, params *ParamsInventory) (*ResponseInventories, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	if params == nil {
		params = &ParamsInventory{}
	}
	if err := utils.ValidateStruct(params); err != nil {
		return nil, err
	}
	limit := utils.DereferencePtr(params.Limit, defaultInventoryLimit)
	pageNo := utils.DereferencePtr(params.PageNo, 1)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Inventory{}).Where("shops_id = ? AND deleted = ?", shopsId, false)
	if search := strings.TrimSpace(utils.DereferencePtr(params.Search)); search != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+search+"%")
	}
	if utils.DereferencePtr(params.Favorite) == FavoriteStatusLike {
		dbCtx = dbCtx.Where("favorite = ?", true)
	}
	if ids := utils.UniqueSlice(params.Type); len(ids) > 0 {
		dbCtx = dbCtx.Where("inventory_type_id IN ?", ids)
	}
	if ids := utils.UniqueSlice(params.Brand); len(ids) > 0 {
		dbCtx = dbCtx.Where("brand_type_id IN ?", ids)
	}
	if ids := utils.UniqueSlice(params.Branch); len(ids) > 0 {
		dbCtx = dbCtx.Where("branch_id IN ?", ids)
	}

	dbCtx = dbCtx.Session(&gorm.Session{})
	var totalRow int64
	if err := dbCtx.Count(&totalRow).Error; err != nil {
		return nil, err
	}
	var results []*Inventory
	err := dbCtx.Order("created_at DESC").Order("id").
		Offset((pageNo - 1) * limit).Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	return &ResponseInventories{
		Inventories: results,
		PageLimit:   limit,
		PageNo:      pageNo,
		TotalPage:   utils.TotalPages(totalRow, limit),
		TotalRow:    int(totalRow),
	}, nil
}

func GetInventoryNames(ctx context.Context) ([]*InventoryName, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	var results []*InventoryName
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Inventory{}).
		Select("id", "name").
		Where("shops_id = ? AND deleted = ?", shopsId, false).
		Order("name").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
