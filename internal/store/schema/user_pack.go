package schema

import "time"

// Grant lifecycle states shared by pack and item grants.
const (
	GrantStatusNew    = "NEW"
	GrantStatusOpened = "OPENED"
)

// UserPack represents the user_packs table - one pack granted to a
// user. The grant id is a ULID so grants sort by assignment time.
type UserPack struct {
	// ID is the grant identifier
	ID string `gorm:"column:id;primaryKey;type:text"`
	// UserID is the holder
	UserID int64 `gorm:"column:user_id;not null;index:idx_user_packs_user_pack,priority:1"`
	// PackID is the granted pack definition
	PackID int64 `gorm:"column:pack_id;not null;index:idx_user_packs_user_pack,priority:2"`
	// Status is NEW until the pack is opened
	Status string `gorm:"column:status;not null;type:text"`
	// OpenedAt is the open timestamp; nil while unopened
	OpenedAt *time.Time `gorm:"column:opened_at"`
	// Activation gates whether the grant is still live
	Activation bool `gorm:"column:activation;not null;default:true"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the UserPack model
func (UserPack) TableName() string {
	return "user_packs"
}
