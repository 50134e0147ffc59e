package models

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"gorm.io/gorm/clause"
)

const importLockTTL = 2 * time.Minute

var ErrImportInProgress = &utils.BusinessError{Code: http.StatusConflict, Message: "importInProgress"}

// InventoryFile is one uploaded batch. Every item it created carries its id.
type InventoryFile struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ShopsId     string    `gorm:"size:36;not null;index" json:"shopsId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	LogicalName string    `gorm:"size:300;not null;uniqueIndex" json:"-"`
	ArchiveUrl  string    `gorm:"size:500" json:"archiveUrl"`
	RowCount    int       `gorm:"not null;default:0" json:"rowCount"`
	CreatedBy   string    `gorm:"size:100" json:"createdBy"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type UploadInventoryInput struct {
	UploadDatas []*NewInventory `json:"uploadDatas"`
	FileName    string          `json:"fileName"`
	ArchiveUrl  string          `json:"-"`
}

type UploadInventoryResponse struct {
	Id      string       `json:"id"`
	Success bool         `json:"success"`
	Reason  UploadReason `json:"reason"`
}

type ResponseFileUploadNames struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type DataUploadFile struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Brand        string `json:"brand"`
	Branch       string `json:"branch"`
	Description  string `json:"description"`
	ExpiryDate   string `json:"expiryDate"`
	Amount       string `json:"amount"`
	Sku          string `json:"sku"`
	ReorderLevel string `json:"reorderLevel"`
	Price        string `json:"price"`
	PriceMember  string `json:"priceMember"`
	Favorite     string `json:"favorite"`
	Weight       string `json:"weight"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	Length       string `json:"length"`
}

type ResponseGetUploadFile struct {
	FileName string            `json:"fileName"`
	Data     []*DataUploadFile `json:"data"`
}

func failedUpload(id string, reason UploadReason) *UploadInventoryResponse {
	return &UploadInventoryResponse{Id: id, Success: false, Reason: reason}
}

// ImportInventories inserts every row of one upload or none of them. Rows are
// checked before anything is written; a row the store silently skips (a name
// that already exists) fails the whole batch and the partial insert is undone.
func ImportInventories(ctx context.Context, input *UploadInventoryInput) (*UploadInventoryResponse, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	fileName := strings.TrimSpace(input.FileName)
	fileLogicalName, err := utils.EncodeLogicalName(fileName, a.ShopsId)
	if err != nil {
		return nil, err
	}
	if len(input.UploadDatas) == 0 {
		return failedUpload("", UploadReasonEmpty), nil
	}

	lock, err := utils.ObtainLock(ctx, "lock:import", a.ShopsId, importLockTTL, "inventoryFile.go", "ImportInventories")
	if err != nil {
		if errors.Is(err, utils.ErrLockNotObtained) {
			return nil, ErrImportInProgress
		}
		return nil, err
	}
	defer utils.ReleaseLock(ctx, lock, "inventoryFile.go", "ImportInventories")

	count, err := utils.ResourceCountWhere[InventoryFile](ctx, a.ShopsId, "logical_name = ?", fileLogicalName)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return failedUpload("", UploadReasonDuplicated), nil
	}

	if reason := validateImportRows(ctx, a.ShopsId, input.UploadDatas); reason != "" {
		return failedUpload("", reason), nil
	}

	batchId := uuid.NewString()
	file := InventoryFile{
		ID:          batchId,
		ShopsId:     a.ShopsId,
		Name:        fileName,
		LogicalName: fileLogicalName,
		ArchiveUrl:  input.ArchiveUrl,
		RowCount:    len(input.UploadDatas),
		CreatedBy:   a.UserName,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&file).Error; err != nil {
		if utils.IsBusinessError(err, utils.ErrDuplicated) {
			return failedUpload("", UploadReasonDuplicated), nil
		}
		return nil, err
	}

	records, err := importRecords(a, batchId, input.UploadDatas)
	if err != nil {
		compensateImport(ctx, batchId)
		return failedUpload(batchId, UploadReasonInvalid), nil
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(records, max(config.GetSettings().ImportInsertBatchSize, 1))
	if res.Error != nil {
		config.LogError(config.GetLogger(), "inventoryFile.go", "ImportInventories", "insert batch", batchId, res.Error)
		compensateImport(ctx, batchId)
		return failedUpload(batchId, UploadReasonSomethingWrong), nil
	}
	if int(res.RowsAffected) != len(records) {
		compensateImport(ctx, batchId)
		return failedUpload(batchId, UploadReasonLost), nil
	}

	publishEvent(ctx, a, DeletedTypeInventory, batchId, EventActionImported)
	return &UploadInventoryResponse{Id: batchId, Success: true}, nil
}

// validateImportRows returns the failure reason for the batch, or "".
func validateImportRows(ctx context.Context, shopsId string, rows []*NewInventory) UploadReason {
	var typeIds, brandIds, branchIds []string
	for _, row := range rows {
		if row == nil {
			return UploadReasonInvalid
		}
		row.Name = strings.TrimSpace(row.Name)
		// the row id is the spreadsheet's own row key, not a store id
		csvId := row.ID
		row.ID = nil
		err := utils.ValidateStruct(row)
		row.ID = csvId
		if err != nil {
			return UploadReasonInvalid
		}
		if row.Price.IsNegative() || row.PriceMember.IsNegative() {
			return UploadReasonInvalid
		}
		typeIds = append(typeIds, row.InventoryTypeId)
		brandIds = append(brandIds, row.BrandTypeId)
		branchIds = append(branchIds, utils.DereferencePtr(row.BranchId))
	}

	checks := []error{
		utils.ValidateResourcesOwned[InventoryType](ctx, shopsId, typeIds, "inventory type"),
		utils.ValidateResourcesOwned[InventoryBrand](ctx, shopsId, brandIds, "brand"),
		utils.ValidateResourcesOwned[InventoryBranch](ctx, shopsId, branchIds, "branch"),
	}
	for _, err := range checks {
		if err == nil {
			continue
		}
		if utils.IsBusinessError(err, utils.ErrForbidden) {
			return UploadReasonForbidden
		}
		if be := utils.AsBusinessError(err); be.Code == http.StatusBadRequest {
			return UploadReasonInvalid
		}
		config.LogError(config.GetLogger(), "inventoryFile.go", "validateImportRows", "check references", shopsId, err)
		return UploadReasonSomethingWrong
	}
	return ""
}

func importRecords(a *actor, batchId string, rows []*NewInventory) ([]*Inventory, error) {
	records := make([]*Inventory, 0, len(rows))
	for _, row := range rows {
		branchId := strings.TrimSpace(utils.DereferencePtr(row.BranchId))
		logicalName, err := utils.EncodeLogicalName(row.Name, branchId, a.ShopsId)
		if err != nil {
			return nil, err
		}
		records = append(records, &Inventory{
			ID:              uuid.NewString(),
			ShopsId:         a.ShopsId,
			Name:            row.Name,
			LogicalName:     logicalName,
			InventoryTypeId: row.InventoryTypeId,
			BrandTypeId:     row.BrandTypeId,
			BranchId:        branchId,
			Amount:          row.Amount,
			Sku:             row.Sku,
			SerialNumber:    row.SerialNumber,
			ReorderLevel:    row.ReorderLevel,
			Price:           row.Price,
			PriceMember:     row.PriceMember,
			PackedSize:      utils.PackSize(row.Size),
			Favorite:        utils.DereferencePtr(row.Favorite),
			ExpiryDate:      row.ExpiryDate,
			Description:     row.Description,
			InventoryFileId: &batchId,
			CsvId:           utils.DereferencePtr(row.ID),
			CreatedBy:       a.UserName,
			UpdatedBy:       a.UserName,
		})
	}
	return records, nil
}

// compensateImport removes what a failed batch wrote. Failures are logged only.
func compensateImport(ctx context.Context, batchId string) {
	logger := config.GetLogger()
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("inventory_file_id = ?", batchId).Delete(&Inventory{}).Error; err != nil {
		config.LogError(logger, "inventoryFile.go", "compensateImport", "delete items", batchId, err)
	}
	if err := db.WithContext(ctx).Where("id = ?", batchId).Delete(&InventoryFile{}).Error; err != nil {
		config.LogError(logger, "inventoryFile.go", "compensateImport", "delete batch", batchId, err)
	}
}

func GetUploadFiles(ctx context.Context) ([]*ResponseFileUploadNames, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	var results []*ResponseFileUploadNames
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&InventoryFile{}).
		Select("id", "name").
		Where("shops_id = ?", shopsId).
		Order("created_at DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetUploadFile returns the live items created by one upload, rendered the
// way the spreadsheet rows looked.
func GetUploadFile(ctx context.Context, id string) (*ResponseGetUploadFile, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	file, err := utils.FetchOwned[InventoryFile](ctx, shopsId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var items []*Inventory
	err = db.WithContext(ctx).
		Where("shops_id = ? AND inventory_file_id = ? AND deleted = ?", shopsId, id, false).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	typeNames, err := lookupNames[InventoryType](ctx, shopsId)
	if err != nil {
		return nil, err
	}
	brandNames, err := lookupNames[InventoryBrand](ctx, shopsId)
	if err != nil {
		return nil, err
	}
	branchNames, err := lookupNames[InventoryBranch](ctx, shopsId)
	if err != nil {
		return nil, err
	}

	data := make([]*DataUploadFile, 0, len(items))
	for _, item := range items {
		size := utils.UnpackSize(item.PackedSize)
		row := &DataUploadFile{
			Id:           item.CsvId,
			Name:         item.Name,
			Type:         typeNames[item.InventoryTypeId],
			Brand:        brandNames[item.BrandTypeId],
			Branch:       branchNames[item.BranchId],
			Description:  item.Description,
			Amount:       strconv.Itoa(item.Amount),
			Sku:          item.Sku,
			ReorderLevel: strconv.Itoa(item.ReorderLevel),
			Price:        item.Price.String(),
			PriceMember:  item.PriceMember.String(),
			Favorite:     strconv.FormatBool(item.Favorite),
			Weight:       strconv.FormatFloat(utils.DereferencePtr(size.Weight), 'f', -1, 64),
			Width:        strconv.FormatFloat(utils.DereferencePtr(size.Width), 'f', -1, 64),
			Height:       strconv.FormatFloat(utils.DereferencePtr(size.Height), 'f', -1, 64),
			Length:       strconv.FormatFloat(utils.DereferencePtr(size.Length), 'f', -1, 64),
		}
		if item.ExpiryDate != nil {
			row.ExpiryDate = item.ExpiryDate.Format("2006-01-02")
		}
		data = append(data, row)
	}
	return &ResponseGetUploadFile{FileName: file.Name, Data: data}, nil
}

// lookupNames maps id to display name for one lookup kind, trashed rows included.
func lookupNames[T any](ctx context.Context, shopsId string) (map[string]string, error) {
	var model T
	var rows []struct {
		ID   string
		Name string
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&model).Select("id", "name").Where("shops_id = ?", shopsId).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
