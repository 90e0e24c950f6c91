package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a
// GORM database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Migrate creates or updates the database schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Asset{},
		&schema.AssetTransaction{},
		&schema.PendingSubmission{},
		&schema.Game{},
		&schema.RewardPack{},
		&schema.PackRarityRate{},
		&schema.PackItemFrequency{},
		&schema.Item{},
		&schema.UserPack{},
		&schema.UserItem{},
		&schema.CompoundRecipe{},
	)
}

// CreateAssetWithTransaction persists a new asset together with the
// transaction that created it, atomically
func (s *pgStore) CreateAssetWithTransaction(ctx context.Context, asset *schema.Asset, txn *schema.AssetTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}
		txn.AssetID = &asset.ID
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create asset transaction: %w", err)
		}
		return nil
	})
}

// GetAssetByID retrieves an asset by its record id
func (s *pgStore) GetAssetByID(ctx context.Context, id string) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_delete = false", id).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset by id: %w", err)
	}
	return &asset, nil
}

// GetAssetByTxHash retrieves the asset created by the given transaction
func (s *pgStore) GetAssetByTxHash(ctx context.Context, txHash string) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).
		Joins("JOIN asset_transactions ON asset_transactions.asset_id = assets.id").
		Where("asset_transactions.tx_hash = ? AND assets.is_delete = false", txHash).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset by tx hash: %w", err)
	}
	return &asset, nil
}

// GetAssetByToken retrieves an asset by network, contract and token id
func (s *pgStore) GetAssetByToken(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).
		Where("network = ? AND contract_address = ? AND token_id = ? AND is_delete = false",
			network, contractAddress, tokenID).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset by token: %w", err)
	}
	return &asset, nil
}

// GetTransactionByTxHash retrieves one history row by transaction hash
func (s *pgStore) GetTransactionByTxHash(ctx context.Context, txHash string) (*schema.AssetTransaction, error) {
	var txn schema.AssetTransaction
	err := s.db.WithContext(ctx).
		Where("tx_hash = ? AND is_delete = false", txHash).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by tx hash: %w", err)
	}
	return &txn, nil
}

// ListAssetsByOwner retrieves a page of assets held by an owner,
// together with the unpaged total
func (s *pgStore) ListAssetsByOwner(ctx context.Context, ownerAddress string, limit, offset int) ([]schema.Asset, int64, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("owner_address = ? AND is_burn = false AND is_delete = false", ownerAddress)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assets by owner: %w", err)
	}

	var assets []schema.Asset
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&assets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets by owner: %w", err)
	}
	return assets, total, nil
}

// UpdateAssetMetadata replaces the asset's metadata URI and attributes
func (s *pgStore) UpdateAssetMetadata(ctx context.Context, id string, tokenMetadata string, attrs datatypes.JSON) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("id = ? AND is_burn = false AND is_delete = false", id).
		Updates(map[string]interface{}{
			"token_metadata": tokenMetadata,
			"metadata_attr":  attrs,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update asset metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// MarkAssetBurned flags the asset matching the token as burned. Burning
// an already-burned asset is a no-op.
func (s *pgStore) MarkAssetBurned(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("network = ? AND contract_address = ? AND token_id = ? AND is_delete = false",
			network, contractAddress, tokenID).
		Updates(map[string]interface{}{
			"is_burn":    true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark asset burned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// SetAssetTokenID backfills the on-chain token id of an asset whose
// receipt arrived after the submission window
func (s *pgStore) SetAssetTokenID(ctx context.Context, id string, tokenID int64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("id = ? AND token_id IS NULL", id).
		Updates(map[string]interface{}{
			"token_id":   tokenID,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set asset token id: %w", err)
	}
	return nil
}

// AppendAssetTransaction records a transfer in the asset's history and
// moves ownership to the recipient, atomically
func (s *pgStore) AppendAssetTransaction(ctx context.Context, txn *schema.AssetTransaction, newOwner string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create asset transaction: %w", err)
		}
		if txn.AssetID != nil && newOwner != "" {
			err := tx.Model(&schema.Asset{}).
				Where("id = ?", *txn.AssetID).
				Updates(map[string]interface{}{
					"owner_address": newOwner,
					"updated_at":    time.Now(),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update asset owner: %w", err)
			}
		}
		return nil
	})
}

// CreatePendingSubmission records a submission whose receipt is outstanding
func (s *pgStore) CreatePendingSubmission(ctx context.Context, sub *schema.PendingSubmission) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create pending submission: %w", err)
	}
	return nil
}

// ListUnsettledSubmissions retrieves submissions still awaiting a receipt
func (s *pgStore) ListUnsettledSubmissions(ctx context.Context, network domain.Network, limit int) ([]schema.PendingSubmission, error) {
	if limit <= 0 {
		limit = 50
	}

	var subs []schema.PendingSubmission
	err := s.db.WithContext(ctx).
		Where("network = ? AND settled = false", network).
		Order("created_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled submissions: %w", err)
	}
	return subs, nil
}

// SettlePendingSubmission marks a submission as settled
func (s *pgStore) SettlePendingSubmission(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.PendingSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"settled":    true,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to settle pending submission: %w", err)
	}
	return nil
}

// BumpSubmissionAttempts increments a submission's poll counter
func (s *pgStore) BumpSubmissionAttempts(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.PendingSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to bump submission attempts: %w", err)
	}
	return nil
}

// ListGames retrieves a page of active games and the unpaged total
func (s *pgStore) ListGames(ctx context.Context, limit, offset int) ([]schema.Game, int64, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Model(&schema.Game{}).
		Where("activation = true AND is_delete = false")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count games: %w", err)
	}

	var games []schema.Game
	err := query.
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&games).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list games: %w", err)
	}
	return games, total, nil
}

// GetGameByID retrieves a game by id
func (s *pgStore) GetGameByID(ctx context.Context, id int64) (*schema.Game, error) {
	var game schema.Game
	err := s.db.WithContext(ctx).
		Where("id = ? AND activation = true AND is_delete = false", id).
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}
	return &game, nil
}

// ListAssignablePacks retrieves the rarity-rate rows of a game's packs
// that still have stock
func (s *pgStore) ListAssignablePacks(ctx context.Context, gameID int64) ([]PackCandidate, error) {
	var candidates []PackCandidate
	err := s.db.WithContext(ctx).
		Model(&schema.PackRarityRate{}).
		Select("pack_rarity_rates.pack_id, pack_rarity_rates.rarity, pack_rarity_rates.rate, reward_packs.remaining_count").
		Joins("JOIN reward_packs ON reward_packs.id = pack_rarity_rates.pack_id").
		Where("reward_packs.game_id = ? AND reward_packs.remaining_count > 0", gameID).
		Where("reward_packs.activation = true AND reward_packs.is_delete = false").
		Where("pack_rarity_rates.activation = true AND pack_rarity_rates.is_delete = false").
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable packs: %w", err)
	}
	return candidates, nil
}

// AssignPack decrements a pack's stock and grants it to the user,
// atomically. The guarded update is the only writer of remaining_count,
// so two concurrent assignments of the last unit cannot both succeed.
func (s *pgStore) AssignPack(ctx context.Context, grant *schema.UserPack) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&schema.RewardPack{}).
			Where("id = ? AND remaining_count > 0 AND activation = true AND is_delete = false", grant.PackID).
			Updates(map[string]interface{}{
				"remaining_count": gorm.Expr("remaining_count - 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to decrement pack stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrOutOfStock
		}

		grant.Status = schema.GrantStatusNew
		grant.Activation = true
		if err := tx.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to create pack grant: %w", err)
		}
		return nil
	})
}

// GetOwnedUserPack retrieves the user's oldest unopened grant of the
// given pack within a game
func (s *pgStore) GetOwnedUserPack(ctx context.Context, userID, gameID, packID int64) (*schema.UserPack, error) {
	var grant schema.UserPack
	err := s.db.WithContext(ctx).
		Joins("JOIN reward_packs ON reward_packs.id = user_packs.pack_id").
		Where("user_packs.user_id = ? AND user_packs.pack_id = ? AND reward_packs.game_id = ?", userID, packID, gameID).
		Where("user_packs.status = ? AND user_packs.activation = true AND user_packs.is_delete = false", schema.GrantStatusNew).
		Order("user_packs.created_at ASC").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pack grant: %w", err)
	}
	return &grant, nil
}

// ListPackItemFrequencies retrieves a pack's item drop table
func (s *pgStore) ListPackItemFrequencies(ctx context.Context, packID int64) ([]ItemCandidate, error) {
	var candidates []ItemCandidate
	err := s.db.WithContext(ctx).
		Model(&schema.PackItemFrequency{}).
		Select("item_id, frequency").
		Where("pack_id = ? AND frequency > 0 AND activation = true AND is_delete = false", packID).
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pack item frequencies: %w", err)
	}
	return candidates, nil
}

// OpenPack marks a pack grant as opened and records the item it
// produced, atomically. The status guard rejects a second open of the
// same grant.
func (s *pgStore) OpenPack(ctx context.Context, userPackID string, grant *schema.UserItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&schema.UserPack{}).
			Where("id = ? AND status = ? AND is_delete = false", userPackID, schema.GrantStatusNew).
			Updates(map[string]interface{}{
				"status":     schema.GrantStatusOpened,
				"opened_at":  now,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to open pack grant: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrPackNotOwned
		}

		if err := tx.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to create item grant: %w", err)
		}
		return nil
	})
}

// ListUserPacks retrieves a page of a user's pack grants within a game,
// joined with pack details, and the unpaged total
func (s *pgStore) ListUserPacks(ctx context.Context, userID, gameID int64, limit, offset int) ([]UserPackView, int64, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Model(&schema.UserPack{}).
		Joins("JOIN reward_packs ON reward_packs.id = user_packs.pack_id").
		Where("user_packs.user_id = ? AND reward_packs.game_id = ?", userID, gameID).
		Where("user_packs.activation = true AND user_packs.is_delete = false")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pack grants: %w", err)
	}

	var views []UserPackView
	err := query.
		Select("user_packs.id, user_packs.created_at, user_packs.status, reward_packs.fullname, reward_packs.description, reward_packs.thumbnail, reward_packs.inclusion_count").
		Order("user_packs.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pack grants: %w", err)
	}
	return views, total, nil
}

// ListUserItems retrieves a page of a user's item grants within a game,
// joined with item details, and the unpaged total
func (s *pgStore) ListUserItems(ctx context.Context, userID, gameID int64, limit, offset int) ([]UserItemView, int64, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Model(&schema.UserItem{}).
		Joins("JOIN items ON items.id = user_items.item_id").
		Where("user_items.user_id = ? AND items.game_id = ?", userID, gameID).
		Where("user_items.activation = true AND user_items.is_delete = false")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count item grants: %w", err)
	}

	var views []UserItemView
	err := query.
		Select("user_items.id, user_items.created_at, user_items.status, items.name, items.description, items.rarity, items.thumbnail_url, items.metadata_url").
		Order("user_items.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list item grants: %w", err)
	}
	return views, total, nil
}

// GetItemByID retrieves an item definition by id
func (s *pgStore) GetItemByID(ctx context.Context, id int64) (*schema.Item, error) {
	var item schema.Item
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_delete = false", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item by id: %w", err)
	}
	return &item, nil
}

// ListCompoundsByGame retrieves a game's fusion recipes grouped by
// produced item. Each group carries the full burn list, so a recipe
// with several burn rows comes back as one group.
func (s *pgStore) ListCompoundsByGame(ctx context.Context, gameID int64) ([]CompoundGroup, error) {
	var recipes []schema.CompoundRecipe
	err := s.db.WithContext(ctx).
		Joins("JOIN items ON items.id = compound_recipes.item_id").
		Where("items.game_id = ? AND compound_recipes.activation = true AND compound_recipes.is_delete = false", gameID).
		Order("compound_recipes.item_id ASC, compound_recipes.id ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list compound recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, nil
	}

	ids := make(map[int64]struct{}, len(recipes)*2)
	for _, r := range recipes {
		ids[r.ItemID] = struct{}{}
		ids[r.BurnItemID] = struct{}{}
	}
	itemIDs := make([]int64, 0, len(ids))
	for id := range ids {
		itemIDs = append(itemIDs, id)
	}

	var items []schema.Item
	err = s.db.WithContext(ctx).
		Where("id IN ? AND is_delete = false", itemIDs).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load compound items: %w", err)
	}
	byID := make(map[int64]schema.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var groups []CompoundGroup
	index := make(map[int64]int)
	for _, r := range recipes {
		result, ok := byID[r.ItemID]
		if !ok {
			continue
		}
		pos, ok := index[r.ItemID]
		if !ok {
			pos = len(groups)
			index[r.ItemID] = pos
			groups = append(groups, CompoundGroup{Item: result})
		}
		if burn, ok := byID[r.BurnItemID]; ok {
			groups[pos].BurnItems = append(groups[pos].BurnItems, burn)
		}
	}
	return groups, nil
}
