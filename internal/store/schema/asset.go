package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// Asset represents the assets table - one minted or tracked NFT.
// The Operation Executor is the only writer: rows are created on
// successful mint, mutated on metadata update and on burn.
type Asset struct {
	// ID is the opaque record identifier
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// UserID is the owning client user
	UserID int64 `gorm:"column:user_id;not null;index"`
	// OwnerAddress is the current owner's account address
	OwnerAddress string `gorm:"column:owner_address;type:text;index"`
	// ContractAddress is the deployed contract the token lives in
	ContractAddress string `gorm:"column:contract_address;type:text;index:idx_assets_token_contract,priority:2"`
	// TokenID is the on-chain token id; nil until decoded
	TokenID *int64 `gorm:"column:token_id;index:idx_assets_token_contract,priority:1"`
	// TokenMetadata is the token metadata URI
	TokenMetadata string `gorm:"column:token_metadata;type:text"`
	// Thumbnail is the stored thumbnail reference
	Thumbnail string `gorm:"column:thumbnail;type:text"`
	// Network identifies the network the token was minted on
	Network domain.Network `gorm:"column:network;not null;type:text"`
	// IsBurn is set once the token is burned. After that, only
	// soft-delete may mutate the row.
	IsBurn bool `gorm:"column:is_burn;not null;default:false"`
	// MetadataAttr is the free-form serialized attribute list
	MetadataAttr datatypes.JSON `gorm:"column:metadata_attr;type:jsonb"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}
