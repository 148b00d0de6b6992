package models

import (
	"encoding/json"
	"time"
)

// DefaultThreshold applies when an item is created without an explicit threshold.
const DefaultThreshold = 10

type InventoryItem struct {
	Base      `bson:",inline"`
	ItemName  string    `bson:"item_name" json:"item_name"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Threshold int       `bson:"threshold" json:"threshold"`
	Unit      *string   `bson:"unit,omitempty" json:"unit"`
	Notes     *string   `bson:"notes,omitempty" json:"notes"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsLowStock is derived, never stored.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity < i.Threshold
}

func (i InventoryItem) MarshalJSON() ([]byte, error) {
	type plain InventoryItem
	return json.Marshal(struct {
		plain
		IsLowStock bool `json:"is_low_stock"`
	}{plain(i), i.IsLowStock()})
}
