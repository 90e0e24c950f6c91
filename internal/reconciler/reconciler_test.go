package reconciler

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/adapter"
	"github.com/gesoten/nft-game-gateway/internal/chain"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/registry"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// fakeClient serves receipts from a scripted map. Everything else on the
// chain surface is unused by the reconciler.
type fakeClient struct {
	network  domain.Network
	receipts map[common.Hash]*types.Receipt
}

func (f *fakeClient) Network() domain.Network { return f.network }
func (f *fakeClient) ValidateAddress(string) bool { return true }
func (f *fakeClient) CreateWallet() (*domain.Wallet, error) {
	return nil, nil
}
func (f *fakeClient) Balance(context.Context, string) (*big.Int, error) { return nil, nil }
func (f *fakeClient) GasPrice(context.Context) (*big.Int, error) { return nil, nil }
func (f *fakeClient) PendingNonce(context.Context, common.Address) (uint64, error) {
	return 0, nil
}
func (f *fakeClient) EstimateGas(context.Context, common.Address, common.Address, []byte) (uint64, error) {
	return 0, nil
}
func (f *fakeClient) Submit(context.Context, *ecdsa.PrivateKey, common.Address, []byte) (*chain.Submission, error) {
	return nil, nil
}
func (f *fakeClient) SendNative(context.Context, *ecdsa.PrivateKey, common.Address, *big.Int) (*chain.Submission, error) {
	return nil, nil
}
func (f *fakeClient) Receipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return receipt, nil
}
func (f *fakeClient) Close() {}

type fakeLedger struct {
	mu        sync.Mutex
	unsettled []schema.PendingSubmission
	settled   []uint64
	attempts  []uint64
	tokenIDs  map[string]int64
}

func newFakeLedger(subs ...schema.PendingSubmission) *fakeLedger {
	return &fakeLedger{unsettled: subs, tokenIDs: make(map[string]int64)}
}

func (f *fakeLedger) ListUnsettledSubmissions(_ context.Context, network domain.Network, limit int) ([]schema.PendingSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schema.PendingSubmission
	for _, sub := range f.unsettled {
		if sub.Network == network && len(out) < limit {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeLedger) SettlePendingSubmission(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, id)
	return nil
}

func (f *fakeLedger) BumpSubmissionAttempts(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, id)
	return nil
}

func (f *fakeLedger) SetAssetTokenID(_ context.Context, id string, tokenID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenIDs[id] = tokenID
	return nil
}

func mintReceipt(tokenID int64) *types.Receipt {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{{
			Topics: []common.Hash{
				{}, {}, {},
				common.BigToHash(big.NewInt(tokenID)),
			},
		}},
	}
}

func newTestReconciler(client chain.Client, ledger *fakeLedger) *Reconciler {
	return New(Config{}, registry.NewNetworks(client), ledger, adapter.NewClock())
}

func TestSettleBackfillsMintTokenID(t *testing.T) {
	txHash := common.HexToHash("0x01")
	assetID := "asset-1"
	client := &fakeClient{
		network:  domain.NetworkPolygon,
		receipts: map[common.Hash]*types.Receipt{txHash: mintReceipt(77)},
	}
	ledger := newFakeLedger()
	rec := newTestReconciler(client, ledger)

	rec.settle(context.Background(), client, schema.PendingSubmission{
		ID:      1,
		TxHash:  txHash.Hex(),
		Network: domain.NetworkPolygon,
		Kind:    domain.OperationMint,
		AssetID: &assetID,
	})

	assert.Equal(t, []uint64{1}, ledger.settled)
	assert.Equal(t, int64(77), ledger.tokenIDs[assetID])
	assert.Empty(t, ledger.attempts)
}

func TestSettleStillUnminedBumpsAttempts(t *testing.T) {
	client := &fakeClient{network: domain.NetworkPolygon}
	ledger := newFakeLedger()
	rec := newTestReconciler(client, ledger)

	rec.settle(context.Background(), client, schema.PendingSubmission{
		ID:      5,
		TxHash:  common.HexToHash("0x02").Hex(),
		Network: domain.NetworkPolygon,
		Kind:    domain.OperationMint,
	})

	assert.Equal(t, []uint64{5}, ledger.attempts)
	assert.Empty(t, ledger.settled)
}

func TestSettleRevertedTransactionStillSettles(t *testing.T) {
	txHash := common.HexToHash("0x03")
	assetID := "asset-2"
	client := &fakeClient{
		network: domain.NetworkPolygon,
		receipts: map[common.Hash]*types.Receipt{
			txHash: {Status: types.ReceiptStatusFailed},
		},
	}
	ledger := newFakeLedger()
	rec := newTestReconciler(client, ledger)

	rec.settle(context.Background(), client, schema.PendingSubmission{
		ID:      9,
		TxHash:  txHash.Hex(),
		Network: domain.NetworkPolygon,
		Kind:    domain.OperationMint,
		AssetID: &assetID,
	})

	// Reverted means done polling, but no ledger backfill
	assert.Equal(t, []uint64{9}, ledger.settled)
	assert.NotContains(t, ledger.tokenIDs, assetID)
}

func TestSettleSkipsBackfillForNonMint(t *testing.T) {
	txHash := common.HexToHash("0x04")
	assetID := "asset-3"
	client := &fakeClient{
		network:  domain.NetworkPolygon,
		receipts: map[common.Hash]*types.Receipt{txHash: mintReceipt(11)},
	}
	ledger := newFakeLedger()
	rec := newTestReconciler(client, ledger)

	rec.settle(context.Background(), client, schema.PendingSubmission{
		ID:      2,
		TxHash:  txHash.Hex(),
		Network: domain.NetworkPolygon,
		Kind:    domain.OperationTransfer,
		AssetID: &assetID,
	})

	assert.Equal(t, []uint64{2}, ledger.settled)
	assert.NotContains(t, ledger.tokenIDs, assetID)
}

func TestRunCycleSkipsUnconfiguredNetworks(t *testing.T) {
	txHash := common.HexToHash("0x05")
	assetID := "asset-4"
	client := &fakeClient{
		network:  domain.NetworkPolygon,
		receipts: map[common.Hash]*types.Receipt{txHash: mintReceipt(3)},
	}
	ledger := newFakeLedger(
		schema.PendingSubmission{
			ID:      1,
			TxHash:  txHash.Hex(),
			Network: domain.NetworkPolygon,
			Kind:    domain.OperationMint,
			AssetID: &assetID,
		},
		// No client registered for this network; the cycle must not
		// touch it.
		schema.PendingSubmission{
			ID:      2,
			TxHash:  common.HexToHash("0x06").Hex(),
			Network: domain.NetworkOasy,
			Kind:    domain.OperationMint,
		},
	)
	rec := newTestReconciler(client, ledger)
	rec.pool = pond.NewPool(1)

	require.NoError(t, rec.runCycle(context.Background()))
	rec.pool.StopAndWait()

	assert.Equal(t, []uint64{1}, ledger.settled)
	assert.Equal(t, int64(3), ledger.tokenIDs[assetID])
}
