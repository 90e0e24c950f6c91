package lottery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/store"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// fakeStore implements the engine's Store with in-memory state
type fakeStore struct {
	mu          sync.Mutex
	packs       []store.PackCandidate
	stock       map[int64]int
	packGames   map[int64]int64
	userPacks   map[string]*schema.UserPack
	items       map[int64]*schema.Item
	frequencies map[int64][]store.ItemCandidate
	userItems   []*schema.UserItem
	assigned    []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stock:       make(map[int64]int),
		packGames:   make(map[int64]int64),
		userPacks:   make(map[string]*schema.UserPack),
		items:       make(map[int64]*schema.Item),
		frequencies: make(map[int64][]store.ItemCandidate),
	}
}

// ListAssignablePacks returns the candidate list as-is, mimicking a
// snapshot that can go stale before the guarded grant runs
func (f *fakeStore) ListAssignablePacks(_ context.Context, _ int64) ([]store.PackCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.packs, nil
}

func (f *fakeStore) AssignPack(_ context.Context, grant *schema.UserPack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stock[grant.PackID] <= 0 {
		return domain.ErrOutOfStock
	}
	f.stock[grant.PackID]--
	grant.Status = schema.GrantStatusNew
	f.userPacks[grant.ID] = grant
	f.assigned = append(f.assigned, grant.PackID)
	return nil
}

func (f *fakeStore) GetOwnedUserPack(_ context.Context, userID, gameID, packID int64) (*schema.UserPack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, grant := range f.userPacks {
		if grant.UserID == userID && grant.PackID == packID &&
			f.packGames[grant.PackID] == gameID && grant.Status == schema.GrantStatusNew {
			return grant, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListPackItemFrequencies(_ context.Context, packID int64) ([]store.ItemCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frequencies[packID], nil
}

func (f *fakeStore) OpenPack(_ context.Context, userPackID string, grant *schema.UserItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pack, ok := f.userPacks[userPackID]
	if !ok || pack.Status != schema.GrantStatusNew {
		return domain.ErrPackNotOwned
	}
	pack.Status = schema.GrantStatusOpened
	f.userItems = append(f.userItems, grant)
	return nil
}

func (f *fakeStore) GetItemByID(_ context.Context, id int64) (*schema.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func TestAssignPackNoCandidates(t *testing.T) {
	engine := NewEngine(newFakeStore(), NewSeededSource(1))

	_, err := engine.AssignPack(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrNoEligiblePack)
}

func TestAssignPackGrantsFromStock(t *testing.T) {
	fake := newFakeStore()
	fake.packs = []store.PackCandidate{
		{PackID: 1, Rarity: 1, Rate: 0.5, RemainingCount: 5},
	}
	fake.stock[1] = 5
	engine := NewEngine(fake, NewSeededSource(1))

	grant, err := engine.AssignPack(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), grant.PackID)
	assert.Equal(t, int64(99), grant.UserID)
	assert.Equal(t, schema.GrantStatusNew, grant.Status)
	assert.NotEmpty(t, grant.ID)
	assert.Equal(t, 4, fake.stock[1])
}

func TestAssignPackFallsThroughWhenSoldOut(t *testing.T) {
	fake := newFakeStore()
	fake.packs = []store.PackCandidate{
		{PackID: 1, Rarity: 1, Rate: 0.01, RemainingCount: 1},
		{PackID: 2, Rarity: 5, Rate: 0.9, RemainingCount: 1},
	}
	// Pack 1 has an overwhelming weight but no actual stock left:
	// candidates were listed before a concurrent grant took the last
	// unit. The draw must fall through to pack 2.
	fake.stock[1] = 0
	fake.stock[2] = 1
	engine := NewEngine(fake, NewSeededSource(7))

	grant, err := engine.AssignPack(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), grant.PackID)
}

func TestAssignPackAllSoldOut(t *testing.T) {
	fake := newFakeStore()
	fake.packs = []store.PackCandidate{
		{PackID: 1, Rarity: 1, Rate: 0.5, RemainingCount: 1},
	}
	fake.stock[1] = 0
	engine := NewEngine(fake, NewSeededSource(1))

	_, err := engine.AssignPack(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
}

func TestAssignPackLastUnitNotOversold(t *testing.T) {
	fake := newFakeStore()
	fake.packs = []store.PackCandidate{
		{PackID: 1, Rarity: 1, Rate: 0.5, RemainingCount: 1},
	}
	fake.stock[1] = 1
	engine := NewEngine(fake, NewSource())

	const workers = 16
	var wg sync.WaitGroup
	var successes, stockErrs int
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := engine.AssignPack(context.Background(), 1, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			default:
				stockErrs++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, stockErrs)
	assert.Equal(t, 0, fake.stock[1])
}

func TestAssignPackRarityDistribution(t *testing.T) {
	// Common pack: weight 1/(1*0.5) = 2. Rare pack: weight 1/(5*0.8) =
	// 0.25. Over many seeded draws the common pack must win the clear
	// majority.
	const draws = 2000

	fake := newFakeStore()
	fake.packs = []store.PackCandidate{
		{PackID: 1, Rarity: 1, Rate: 0.5, RemainingCount: draws},
		{PackID: 2, Rarity: 5, Rate: 0.8, RemainingCount: draws},
	}
	fake.stock[1] = draws
	fake.stock[2] = draws
	engine := NewEngine(fake, NewSeededSource(42))

	for i := 0; i < draws; i++ {
		_, err := engine.AssignPack(context.Background(), 1, 1)
		require.NoError(t, err)
	}

	var common, rare int
	for _, packID := range fake.assigned {
		if packID == 1 {
			common++
		} else {
			rare++
		}
	}

	assert.Equal(t, draws, common+rare)
	assert.Greater(t, common, rare*3, "common pack should dominate: common=%d rare=%d", common, rare)
	assert.Greater(t, rare, 0, "rare pack should still win occasionally")
}

func TestOpenPackRejectsForeignGrant(t *testing.T) {
	fake := newFakeStore()
	fake.packGames[10] = 3
	fake.userPacks["grant-1"] = &schema.UserPack{
		ID:     "grant-1",
		UserID: 1,
		PackID: 10,
		Status: schema.GrantStatusNew,
	}
	engine := NewEngine(fake, NewSeededSource(1))

	_, _, err := engine.OpenPack(context.Background(), 3, 2, 10)
	assert.ErrorIs(t, err, domain.ErrPackNotOwned)
}

func TestOpenPackRejectsOpenedGrant(t *testing.T) {
	fake := newFakeStore()
	fake.packGames[10] = 3
	fake.userPacks["grant-1"] = &schema.UserPack{
		ID:     "grant-1",
		UserID: 1,
		PackID: 10,
		Status: schema.GrantStatusOpened,
	}
	engine := NewEngine(fake, NewSeededSource(1))

	_, _, err := engine.OpenPack(context.Background(), 3, 1, 10)
	assert.ErrorIs(t, err, domain.ErrPackNotOwned)
}

func TestOpenPackRejectsWrongGame(t *testing.T) {
	fake := newFakeStore()
	fake.packGames[10] = 3
	fake.userPacks["grant-1"] = &schema.UserPack{
		ID:     "grant-1",
		UserID: 1,
		PackID: 10,
		Status: schema.GrantStatusNew,
	}
	engine := NewEngine(fake, NewSeededSource(1))

	_, _, err := engine.OpenPack(context.Background(), 8, 1, 10)
	assert.ErrorIs(t, err, domain.ErrPackNotOwned)
}

func TestOpenPackDrawsItem(t *testing.T) {
	fake := newFakeStore()
	fake.packGames[10] = 3
	fake.userPacks["grant-1"] = &schema.UserPack{
		ID:     "grant-1",
		UserID: 1,
		PackID: 10,
		Status: schema.GrantStatusNew,
	}
	fake.frequencies[10] = []store.ItemCandidate{
		{ItemID: 100, Frequency: 5},
		{ItemID: 200, Frequency: 1},
	}
	fake.items[100] = &schema.Item{ID: 100, Name: "shield"}
	fake.items[200] = &schema.Item{ID: 200, Name: "crown"}
	engine := NewEngine(fake, NewSeededSource(3))

	grant, item, err := engine.OpenPack(context.Background(), 3, 1, 10)
	require.NoError(t, err)
	assert.Contains(t, []int64{100, 200}, grant.ItemID)
	assert.Equal(t, schema.GrantStatusNew, grant.Status)
	require.NotNil(t, item)
	assert.Equal(t, grant.ItemID, item.ID)
	assert.Equal(t, &fake.userPacks["grant-1"].ID, grant.UserPackID)
	assert.Equal(t, schema.GrantStatusOpened, fake.userPacks["grant-1"].Status)
}

func TestOpenPackNoDropTable(t *testing.T) {
	fake := newFakeStore()
	fake.packGames[10] = 3
	fake.userPacks["grant-1"] = &schema.UserPack{
		ID:     "grant-1",
		UserID: 1,
		PackID: 10,
		Status: schema.GrantStatusNew,
	}
	engine := NewEngine(fake, NewSeededSource(1))

	_, _, err := engine.OpenPack(context.Background(), 3, 1, 10)
	assert.ErrorIs(t, err, domain.ErrNoEligibleItem)

	// The grant stays unopened when no item can drop
	assert.Equal(t, schema.GrantStatusNew, fake.userPacks["grant-1"].Status)
}

func TestPickPackItem(t *testing.T) {
	fake := newFakeStore()
	fake.frequencies[10] = []store.ItemCandidate{
		{ItemID: 100, Frequency: 5},
		{ItemID: 200, Frequency: 1},
	}
	engine := NewEngine(fake, NewSeededSource(3))

	itemID, err := engine.PickPackItem(context.Background(), 10)
	require.NoError(t, err)
	assert.Contains(t, []int64{100, 200}, itemID)

	_, err = engine.PickPackItem(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNoEligibleItem)
}
