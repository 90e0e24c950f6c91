package store

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// PackCandidate is one rarity-rate row of a pack that still has stock.
// A pack carrying several rate rows yields several candidates, each
// weighted independently by the allocation engine.
type PackCandidate struct {
	PackID         int64
	Rarity         int
	Rate           float64
	RemainingCount int
}

// ItemCandidate is one item eligible to drop from an opened pack.
type ItemCandidate struct {
	ItemID    int64
	Frequency float64
}

// UserPackView is a pack grant joined with its pack definition, shaped
// for listing responses.
type UserPackView struct {
	ID             string
	CreatedAt      time.Time
	Status         string
	Fullname       string
	Description    string
	Thumbnail      string
	InclusionCount int
}

// UserItemView is an item grant joined with its item definition,
// shaped for listing responses.
type UserItemView struct {
	ID           string
	CreatedAt    time.Time
	Status       string
	Name         string
	Description  string
	Rarity       int
	ThumbnailURL string
	MetadataURL  string
}

// CompoundGroup is one fusion recipe: the produced item together with
// every item the recipe burns.
type CompoundGroup struct {
	Item      schema.Item
	BurnItems []schema.Item
}

// Store defines the interface for database operations
type Store interface {
	// CreateAssetWithTransaction persists a new asset together with the
	// transaction that created it, atomically
	CreateAssetWithTransaction(ctx context.Context, asset *schema.Asset, txn *schema.AssetTransaction) error
	// GetAssetByID retrieves an asset by its record id
	GetAssetByID(ctx context.Context, id string) (*schema.Asset, error)
	// GetAssetByTxHash retrieves the asset created by the given transaction
	GetAssetByTxHash(ctx context.Context, txHash string) (*schema.Asset, error)
	// GetAssetByToken retrieves an asset by network, contract and token id
	GetAssetByToken(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) (*schema.Asset, error)
	// GetTransactionByTxHash retrieves one history row by transaction hash
	GetTransactionByTxHash(ctx context.Context, txHash string) (*schema.AssetTransaction, error)
	// ListAssetsByOwner retrieves a page of assets held by an owner,
	// together with the unpaged total
	ListAssetsByOwner(ctx context.Context, ownerAddress string, limit, offset int) ([]schema.Asset, int64, error)
	// UpdateAssetMetadata replaces the asset's metadata URI and attributes
	UpdateAssetMetadata(ctx context.Context, id string, tokenMetadata string, attrs datatypes.JSON) error
	// MarkAssetBurned flags the asset matching the token as burned
	MarkAssetBurned(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) error
	// SetAssetTokenID backfills the on-chain token id of an asset whose
	// receipt arrived after the submission window
	SetAssetTokenID(ctx context.Context, id string, tokenID int64) error
	// AppendAssetTransaction records a transfer in the asset's history and
	// moves ownership to the recipient, atomically
	AppendAssetTransaction(ctx context.Context, txn *schema.AssetTransaction, newOwner string) error

	// CreatePendingSubmission records a submission whose receipt is outstanding
	CreatePendingSubmission(ctx context.Context, sub *schema.PendingSubmission) error
	// ListUnsettledSubmissions retrieves submissions still awaiting a receipt
	ListUnsettledSubmissions(ctx context.Context, network domain.Network, limit int) ([]schema.PendingSubmission, error)
	// SettlePendingSubmission marks a submission as settled
	SettlePendingSubmission(ctx context.Context, id uint64) error
	// BumpSubmissionAttempts increments a submission's poll counter
	BumpSubmissionAttempts(ctx context.Context, id uint64) error

	// ListGames retrieves a page of active games and the unpaged total
	ListGames(ctx context.Context, limit, offset int) ([]schema.Game, int64, error)
	// GetGameByID retrieves a game by id
	GetGameByID(ctx context.Context, id int64) (*schema.Game, error)
	// ListAssignablePacks retrieves the rarity-rate rows of a game's packs
	// that still have stock
	ListAssignablePacks(ctx context.Context, gameID int64) ([]PackCandidate, error)
	// AssignPack decrements a pack's stock and grants it to the user,
	// atomically. Returns ErrOutOfStock when the pack was sold out by a
	// concurrent assignment.
	AssignPack(ctx context.Context, grant *schema.UserPack) error
	// GetOwnedUserPack retrieves the user's oldest unopened grant of the
	// given pack within a game
	GetOwnedUserPack(ctx context.Context, userID, gameID, packID int64) (*schema.UserPack, error)
	// ListPackItemFrequencies retrieves a pack's item drop table
	ListPackItemFrequencies(ctx context.Context, packID int64) ([]ItemCandidate, error)
	// OpenPack marks a pack grant as opened and records the item it
	// produced, atomically. Returns ErrPackNotOwned when the grant was
	// already opened.
	OpenPack(ctx context.Context, userPackID string, grant *schema.UserItem) error
	// ListUserPacks retrieves a page of a user's pack grants within a
	// game, joined with pack details, and the unpaged total
	ListUserPacks(ctx context.Context, userID, gameID int64, limit, offset int) ([]UserPackView, int64, error)
	// ListUserItems retrieves a page of a user's item grants within a
	// game, joined with item details, and the unpaged total
	ListUserItems(ctx context.Context, userID, gameID int64, limit, offset int) ([]UserItemView, int64, error)
	// GetItemByID retrieves an item definition by id
	GetItemByID(ctx context.Context, id int64) (*schema.Item, error)
	// ListCompoundsByGame retrieves a game's fusion recipes grouped by
	// produced item
	ListCompoundsByGame(ctx context.Context, gameID int64) ([]CompoundGroup, error)
}
