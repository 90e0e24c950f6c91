package schema

import "time"

// RewardPack represents the reward_packs table - one pack definition
// with a finite stock. RemainingCount is only ever decremented through
// a guarded update so concurrent assignments cannot oversell it.
type RewardPack struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// GameID is the owning game
	GameID int64 `gorm:"column:game_id;not null;index"`
	// Fullname is the pack display name
	Fullname string `gorm:"column:fullname;not null;type:text"`
	// Description is the pack display description
	Description string `gorm:"column:description;type:text"`
	// Thumbnail is the pack thumbnail reference
	Thumbnail string `gorm:"column:thumbnail;type:text"`
	// InclusionCount is the number of items the pack yields when opened
	InclusionCount int `gorm:"column:inclusion_count;not null;default:1"`
	// RemainingCount is the live stock counter
	RemainingCount int `gorm:"column:remaining_count;not null"`
	// Activation gates whether the pack can still be assigned
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the RewardPack model
func (RewardPack) TableName() string {
	return "reward_packs"
}
