package models

func (i Inventory) GetID() string      { return i.ID }
func (i Inventory) GetShopsId() string { return i.ShopsId }
func (i Inventory) GetName() string    { return i.Name }
func (i Inventory) IsDeleted() bool    { return i.Deleted }

func (f InventoryFile) GetShopsId() string { return f.ShopsId }

func (u User) GetShopsId() string { return u.ShopsId }
