package schema

import (
	"time"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// AssetTransaction represents the asset_transactions table - one
// on-chain transaction in an asset's history. Rows are children of
// Asset through a plain foreign key; they are queried by AssetID, never
// navigated through an embedded object graph.
type AssetTransaction struct {
	// ID is the opaque record identifier
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// AssetID references the owning asset; nil until linked
	AssetID *string `gorm:"column:asset_id;type:uuid;index"`
	// TxHash is the submitted transaction hash
	TxHash string `gorm:"column:tx_hash;type:text;uniqueIndex"`
	// FromAddress is the sending account
	FromAddress string `gorm:"column:from_address;type:text"`
	// ToAddress is the receiving account
	ToAddress string `gorm:"column:to_address;type:text"`
	// Kind is the logical operation carried by the transaction
	Kind domain.OperationKind `gorm:"column:kind;not null;type:text"`
	// IsDelete is the soft-delete flag
	IsDelete  bool      `gorm:"column:is_delete;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the AssetTransaction model
func (AssetTransaction) TableName() string {
	return "asset_transactions"
}
