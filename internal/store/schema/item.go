package schema

import "time"

// Item represents the items table - one item definition a game can
// drop from packs or produce through compounding.
type Item struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// GameID is the owning game
	GameID int64 `gorm:"column:game_id;not null;index"`
	// Name is the item display name
	Name string `gorm:"column:name;not null;type:text"`
	// Description is the item display description
	Description string `gorm:"column:description;type:text"`
	// Rarity is the item's rarity class
	Rarity int `gorm:"column:rarity;not null"`
	// ThumbnailURL is the item thumbnail reference
	ThumbnailURL string `gorm:"column:thumbnail_url;type:text"`
	// MetadataURL is the metadata URI used when the item is minted
	MetadataURL string `gorm:"column:metadata_url;type:text"`
	// Status is free-form item state maintained by the game backend
	Status string `gorm:"column:status;type:text"`
	// Activation gates whether the item is served at all
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}
