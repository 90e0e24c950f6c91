package schema

import (
	"time"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// PendingSubmission represents the pending_submissions table - a
// transaction that was accepted by the network but whose receipt did not
// arrive within the submission window. The reconciler settles these
// later; they are never re-submitted.
type PendingSubmission struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TxHash is the submitted transaction hash
	TxHash string `gorm:"column:tx_hash;not null;type:text;uniqueIndex"`
	// Network identifies where the transaction was submitted
	Network domain.Network `gorm:"column:network;not null;type:text"`
	// Kind is the logical operation the transaction carries
	Kind domain.OperationKind `gorm:"column:kind;not null;type:text"`
	// Account is the submitting account address
	Account string `gorm:"column:account;type:text"`
	// AssetID references the asset the submission belongs to, when known
	AssetID *string `gorm:"column:asset_id;type:uuid"`
	// Settled is set once the reconciler observed a final receipt
	Settled bool `gorm:"column:settled;not null;default:false;index"`
	// Attempts counts reconciliation polls
	Attempts  int       `gorm:"column:attempts;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the PendingSubmission model
func (PendingSubmission) TableName() string {
	return "pending_submissions"
}
