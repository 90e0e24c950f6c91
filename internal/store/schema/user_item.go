package schema

import "time"

// UserItem represents the user_items table - one item granted to a
// user, usually by opening a pack.
type UserItem struct {
	// ID is the grant identifier
	ID string `gorm:"column:id;primaryKey;type:text"`
	// UserID is the holder
	UserID int64 `gorm:"column:user_id;not null;index"`
	// ItemID is the granted item definition
	ItemID int64 `gorm:"column:item_id;not null;index"`
	// UserPackID references the pack grant the item came from, when any
	UserPackID *string `gorm:"column:user_pack_id;type:text;index"`
	// Status is NEW until downstream consumption transitions it
	Status string `gorm:"column:status;not null;type:text"`
	// Activation gates whether the grant is still live
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the UserItem model
func (UserItem) TableName() string {
	return "user_items"
}
