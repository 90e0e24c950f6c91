package schema

import "time"

// CompoundRecipe represents the compound_recipes table - one
// (result item, burned item) edge of a fusion recipe. A result item
// with several rows requires burning all of the referenced items.
type CompoundRecipe struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ItemID is the item produced by the recipe
	ItemID int64 `gorm:"column:item_id;not null;index"`
	// BurnItemID is one item consumed by the recipe
	BurnItemID int64 `gorm:"column:burn_item_id;not null"`
	// Activation gates whether the recipe is served at all
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the CompoundRecipe model
func (CompoundRecipe) TableName() string {
	return "compound_recipes"
}
