package models

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/xuri/excelize/v2"
)

const sheetDateLayout = "2006-01-02"

// InventorySheetColumns is the header row of an upload spreadsheet. It
// mirrors DataUploadFile so a downloaded batch can be uploaded again.
var InventorySheetColumns = []string{
	"id", "name", "type", "brand", "branch", "description", "expiryDate",
	"amount", "sku", "reorderLevel", "price", "priceMember", "favorite",
	"weight", "width", "height", "length",
}

// ParseInventorySheet reads upload rows from the first sheet. Type, brand and
// branch cells may hold an id or the name of a live row of the caller's shop.
// Blank rows are skipped; unknown columns are ignored.
func ParseInventorySheet(ctx context.Context, r io.Reader) ([]*NewInventory, error) {
	shopsId, ok := utils.GetShopsIdFromContext(ctx)
	if !ok || shopsId == "" {
		return nil, utils.ErrUnauthorized
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, utils.NewBadRequest("invalid spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.NewBadRequest("invalid spreadsheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, utils.NewBadRequest("invalid spreadsheet")
	}
	if len(rows) == 0 {
		return []*NewInventory{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		header[strings.TrimSpace(cell)] = i
	}
	if _, ok := header["name"]; !ok {
		return nil, utils.NewBadRequest("name column is required")
	}

	typeIds, err := liveLookupIds[InventoryType](ctx, shopsId)
	if err != nil {
		return nil, err
	}
	brandIds, err := liveLookupIds[InventoryBrand](ctx, shopsId)
	if err != nil {
		return nil, err
	}
	branchIds, err := liveLookupIds[InventoryBranch](ctx, shopsId)
	if err != nil {
		return nil, err
	}

	result := make([]*NewInventory, 0, len(rows)-1)
	for n, row := range rows[1:] {
		cell := func(column string) string {
			i, ok := header[column]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if isBlankRow(row) {
			continue
		}
		item, err := parseSheetRow(cell, typeIds, brandIds, branchIds)
		if err != nil {
			// n is zero based and the header is row 1
			return nil, utils.NewBadRequest(fmt.Sprintf("row %d: %s", n+2, err.Error()))
		}
		result = append(result, item)
	}
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseSheetRow(cell func(string) string, typeIds, brandIds, branchIds map[string]string) (*NewInventory, error) {
	item := &NewInventory{
		ID:              utils.NilIfEmpty(cell("id")),
		Name:            cell("name"),
		InventoryTypeId: resolveLookupCell(cell("type"), typeIds),
		BrandTypeId:     resolveLookupCell(cell("brand"), brandIds),
		Description:     cell("description"),
		Sku:             cell("sku"),
	}
	if branch := resolveLookupCell(cell("branch"), branchIds); branch != "" {
		item.BranchId = &branch
	}

	var err error
	if item.Amount, err = sheetInt(cell("amount")); err != nil {
		return nil, fmt.Errorf("invalid amount")
	}
	if item.ReorderLevel, err = sheetInt(cell("reorderLevel")); err != nil {
		return nil, fmt.Errorf("invalid reorderLevel")
	}
	if v := cell("price"); v != "" {
		if item.Price, err = utils.ParseDecimal(v); err != nil {
			return nil, fmt.Errorf("invalid price")
		}
	}
	if v := cell("priceMember"); v != "" {
		if item.PriceMember, err = utils.ParseDecimal(v); err != nil {
			return nil, fmt.Errorf("invalid priceMember")
		}
	}
	if v := cell("favorite"); v != "" {
		favorite, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid favorite")
		}
		item.Favorite = &favorite
	}
	if v := cell("expiryDate"); v != "" {
		expiry, err := time.Parse(sheetDateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid expiryDate")
		}
		item.ExpiryDate = &expiry
	}

	size := &utils.Size{}
	dims := []struct {
		column string
		dest   **float64
	}{
		{"width", &size.Width},
		{"length", &size.Length},
		{"height", &size.Height},
		{"weight", &size.Weight},
	}
	for _, d := range dims {
		v := cell(d.column)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid %s", d.column)
		}
		*d.dest = &f
	}
	item.Size = size
	return item, nil
}

func sheetInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// resolveLookupCell maps a display name to its id; anything else is taken as
// an id and left for the ownership checks of the import.
func resolveLookupCell(v string, ids map[string]string) string {
	if id, ok := ids[v]; ok {
		return id
	}
	return v
}

// liveLookupIds maps display name to id for the live rows of one lookup kind.
func liveLookupIds[T any](ctx context.Context, shopsId string) (map[string]string, error) {
	var model T
	var rows []struct {
		ID   string
		Name string
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&model).Select("id", "name").
		Where("shops_id = ? AND deleted = ?", shopsId, false).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(rows))
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	return ids, nil
}

// ExportTrashWorkbook renders the caller's trash view, one sheet per kind.
func ExportTrashWorkbook(ctx context.Context) (*excelize.File, error) {
	trash, err := GetInventoryAllDeleted(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheets := []struct {
		name    string
		records []*DeletedRecord
	}{
		{"Inventory", trash.Inventory},
		{"Type", trash.Type},
		{"Brand", trash.Brand},
		{"Branch", trash.Branch},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeTrashSheet(f, sheet.name, sheet.records); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeTrashSheet(f *excelize.File, sheet string, records []*DeletedRecord) error {
	header := []interface{}{"Id", "Name", "CreatedBy", "UpdatedBy", "CreatedAt", "DeletedAt"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Id,
			r.Name,
			r.CreatedBy,
			r.UpdatedBy,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
