package schema

import "time"

// Game represents the games table - one title whose reward packs and
// items the allocation engine draws from.
type Game struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Fullname is the display name of the title
	Fullname string `gorm:"column:fullname;not null;type:text"`
	// Description is the display description
	Description string `gorm:"column:description;type:text"`
	// Thumbnail is the title thumbnail reference
	Thumbnail string `gorm:"column:thumbnail;type:text"`
	// RefGameID is the title's identifier on the game platform
	RefGameID int64 `gorm:"column:ref_game_id;not null"`
	// RefURL is the title's landing page
	RefURL string `gorm:"column:ref_url;type:text"`
	// Activation gates whether the title is served at all
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Game model
func (Game) TableName() string {
	return "games"
}
