package schema

import "time"

// PackItemFrequency represents the pack_item_frequencies table - how
// often an item appears when its pack is opened. The frequency is used
// directly as the item's draw weight.
type PackItemFrequency struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PackID is the pack this drop-table row belongs to
	PackID int64 `gorm:"column:pack_id;not null;index"`
	// ItemID is the item that can drop
	ItemID int64 `gorm:"column:item_id;not null;index"`
	// Frequency is the item's draw weight, strictly positive
	Frequency float64 `gorm:"column:frequency;not null"`
	// Activation gates whether the row participates in draws
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the PackItemFrequency model
func (PackItemFrequency) TableName() string {
	return "pack_item_frequencies"
}
