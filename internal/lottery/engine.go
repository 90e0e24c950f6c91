package lottery

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/logger"
	"github.com/gesoten/nft-game-gateway/internal/store"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// Store is the slice of the data layer the engine draws against.
// Satisfied by store.Store.
type Store interface {
	ListAssignablePacks(ctx context.Context, gameID int64) ([]store.PackCandidate, error)
	AssignPack(ctx context.Context, grant *schema.UserPack) error
	GetOwnedUserPack(ctx context.Context, userID, gameID, packID int64) (*schema.UserPack, error)
	ListPackItemFrequencies(ctx context.Context, packID int64) ([]store.ItemCandidate, error)
	OpenPack(ctx context.Context, userPackID string, grant *schema.UserItem) error
	GetItemByID(ctx context.Context, id int64) (*schema.Item, error)
}

// Engine runs the weighted pack and item draws. A pack candidate's
// weight is the inverse of its rarity times its emission rate, so rarer
// classes win less often; an item's weight is its configured frequency,
// used directly. Each candidate scores a uniform draw scaled by its
// weight and the highest score wins.
type Engine struct {
	store Store
	rand  Source
}

// NewEngine creates a lottery engine. A nil source falls back to a
// time-seeded one.
func NewEngine(st Store, src Source) *Engine {
	if src == nil {
		src = NewSource()
	}
	return &Engine{store: st, rand: src}
}

// AssignPack draws one pack for the user from the game's remaining
// stock. Stock checks happen per-candidate at grant time: when a
// concurrent assignment takes a pack's last unit, the draw falls
// through to the next-ranked candidate instead of failing.
func (e *Engine) AssignPack(ctx context.Context, gameID, userID int64) (*schema.UserPack, error) {
	candidates, err := e.store.ListAssignablePacks(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: game %d", domain.ErrNoEligiblePack, gameID)
	}

	ranked := e.rankPacks(candidates)
	for _, candidate := range ranked {
		grant := &schema.UserPack{
			ID:     ulid.Make().String(),
			UserID: userID,
			PackID: candidate.PackID,
		}

		err := e.store.AssignPack(ctx, grant)
		if err == nil {
			return grant, nil
		}
		if errors.Is(err, domain.ErrOutOfStock) {
			logger.Debug("pack sold out during assignment, trying next candidate",
				zap.Int64("pack_id", candidate.PackID),
				zap.Int64("game_id", gameID),
			)
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("%w: game %d", domain.ErrOutOfStock, gameID)
}

// rankPacks orders candidates by their weighted draw score, best first
func (e *Engine) rankPacks(candidates []store.PackCandidate) []store.PackCandidate {
	type scored struct {
		candidate store.PackCandidate
		score     float64
	}

	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		weight := 0.0
		if c.Rarity > 0 && c.Rate > 0 {
			weight = 1 / (float64(c.Rarity) * c.Rate)
		}
		scores = append(scores, scored{candidate: c, score: e.rand.Float64() * weight})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	ranked := make([]store.PackCandidate, len(scores))
	for i, s := range scores {
		ranked[i] = s.candidate
	}
	return ranked
}

// OpenPack opens the user's oldest unopened grant of the given pack and
// draws one item from the pack's drop table.
func (e *Engine) OpenPack(ctx context.Context, gameID, userID, packID int64) (*schema.UserItem, *schema.Item, error) {
	grant, err := e.store.GetOwnedUserPack(ctx, userID, gameID, packID)
	if err != nil {
		return nil, nil, err
	}
	if grant == nil {
		return nil, nil, fmt.Errorf("%w: pack %d", domain.ErrPackNotOwned, packID)
	}

	candidates, err := e.store.ListPackItemFrequencies(ctx, packID)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: pack %d", domain.ErrNoEligibleItem, packID)
	}

	winner := e.drawItem(candidates)
	itemGrant := &schema.UserItem{
		ID:         ulid.Make().String(),
		UserID:     userID,
		ItemID:     winner.ItemID,
		UserPackID: &grant.ID,
		Status:     schema.GrantStatusNew,
		Activation: true,
	}

	if err := e.store.OpenPack(ctx, grant.ID, itemGrant); err != nil {
		return nil, nil, err
	}

	item, err := e.store.GetItemByID(ctx, winner.ItemID)
	if err != nil {
		logger.Error(err, zap.Int64("item_id", winner.ItemID))
	}
	return itemGrant, item, nil
}

// PickPackItem draws one item id from a pack's drop table without
// touching any grant. Used for drop previews.
func (e *Engine) PickPackItem(ctx context.Context, packID int64) (int64, error) {
	candidates, err := e.store.ListPackItemFrequencies(ctx, packID)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: pack %d", domain.ErrNoEligibleItem, packID)
	}
	return e.drawItem(candidates).ItemID, nil
}

// drawItem picks the candidate with the highest weighted draw score
func (e *Engine) drawItem(candidates []store.ItemCandidate) store.ItemCandidate {
	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		score := e.rand.Float64() * c.Frequency
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}
