package models

import (
	"github.com/mmdatafocus/inventory_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Inventory{}, &InventoryType{}, &InventoryBrand{}, &InventoryBranch{},
		&InventoryFile{},
		&User{},
	)
}
