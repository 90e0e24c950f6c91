package schema

import "time"

// PackRarityRate represents the pack_rarity_rates table - one
// (rarity class, emission rate) row configured for a pack. The
// allocation engine weights each row by the inverse of rarity times
// rate, so scarcer classes surface less often.
type PackRarityRate struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PackID is the pack the rate applies to
	PackID int64 `gorm:"column:pack_id;not null;index"`
	// Rarity is the rarity class of the row
	Rarity int `gorm:"column:rarity;not null"`
	// Rate is the configured emission rate, strictly positive
	Rate float64 `gorm:"column:rate;not null"`
	// Activation gates whether the row participates in draws
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the PackRarityRate model
func (PackRarityRate) TableName() string {
	return "pack_rarity_rates"
}
