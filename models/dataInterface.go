package models

type Identifier interface {
	GetID() string
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(string) Data
}

// placeholders for references that were removed after the item loaded

func (t InventoryType) GetDefault(id string) Data {
	return InventoryType{Lookup: Lookup{ID: id, Deleted: true}}
}

func (b InventoryBrand) GetDefault(id string) Data {
	return InventoryBrand{Lookup: Lookup{ID: id, Deleted: true}}
}

func (b InventoryBranch) GetDefault(id string) Data {
	return InventoryBranch{Lookup: Lookup{ID: id, Deleted: true}}
}
