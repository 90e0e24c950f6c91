package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/adapter"
	"github.com/gesoten/nft-game-gateway/internal/domain"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// fakeEth implements adapter.EthClient with scripted responses
type fakeEth struct {
	balance     *big.Int
	nonce       uint64
	gasPrice    *big.Int
	sendErr     error
	sent        []*types.Transaction
	receipt     *types.Receipt
	receiptErr  error
	receiptPoll int
}

func (f *fakeEth) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeEth) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeEth) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeEth) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21_000, nil
}

func (f *fakeEth) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeEth) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeEth) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.receiptPoll++
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

func (f *fakeEth) Close() {}

func newTestClient(eth *fakeEth, receiptTimeout time.Duration) Client {
	return NewClient(Config{
		Network:           domain.NetworkPolygon,
		ChainID:           137,
		GasLimit:          2_300_000,
		GasPriceFloorGwei: 40,
		ReceiptTimeout:    receiptTimeout,
	}, eth, adapter.NewClock())
}

func TestFloorGasPrice(t *testing.T) {
	gwei := big.NewInt(1_000_000_000)

	tests := []struct {
		name      string
		suggested *big.Int
		floorGwei int64
		wantGwei  int64
	}{
		{"below floor is raised", big.NewInt(12_300_000_000), 40, 40},
		{"above floor is kept", big.NewInt(55_000_000_000), 40, 55},
		{"sub-gwei remainder is truncated", big.NewInt(55_900_000_000), 40, 55},
		{"exactly at floor", big.NewInt(40_000_000_000), 40, 40},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FloorGasPrice(tc.suggested, tc.floorGwei)
			want := new(big.Int).Mul(big.NewInt(tc.wantGwei), gwei)
			assert.Zero(t, got.Cmp(want), "got %s want %s", got, want)
		})
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)
	assert.NotEmpty(t, AddressOf(key).Hex())

	// 0x prefix is accepted
	prefixed, err := ParseKey("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, AddressOf(key), AddressOf(prefixed))

	_, err = ParseKey("zz")
	assert.ErrorIs(t, err, domain.ErrInvalidSigningKey)
}

func TestValidateAddress(t *testing.T) {
	client := newTestClient(&fakeEth{}, time.Second)

	assert.True(t, client.ValidateAddress("0x9999999999999999999999999999999999999999"))
	assert.False(t, client.ValidateAddress("0x123"))
	assert.False(t, client.ValidateAddress("not an address"))
}

func TestCreateWallet(t *testing.T) {
	client := newTestClient(&fakeEth{}, time.Second)

	wallet, err := client.CreateWallet()
	require.NoError(t, err)
	assert.True(t, client.ValidateAddress(wallet.Address))
	assert.NotEmpty(t, wallet.PrivateKey)

	// The returned key derives the returned address
	key, err := ParseKey(wallet.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, AddressOf(key).Hex())
}

func TestDecodeTokenID(t *testing.T) {
	receipt := &types.Receipt{
		Logs: []*types.Log{{
			Topics: []common.Hash{
				{}, {}, {},
				common.BigToHash(big.NewInt(1234)),
			},
		}},
	}
	assert.Equal(t, int64(1234), DecodeTokenID(receipt))

	// Tolerant decoding: any shape mismatch yields 0
	assert.Zero(t, DecodeTokenID(nil))
	assert.Zero(t, DecodeTokenID(&types.Receipt{}))
	assert.Zero(t, DecodeTokenID(&types.Receipt{
		Logs: []*types.Log{{Topics: []common.Hash{{}, {}}}},
	}))
}

func TestSubmitSignsAndSends(t *testing.T) {
	eth := &fakeEth{
		nonce:    9,
		gasPrice: big.NewInt(50_000_000_000),
		receipt:  &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
	client := newTestClient(eth, time.Second)

	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	sub, err := client.Submit(context.Background(), key, common.HexToAddress("0x2222222222222222222222222222222222222222"), []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, sub.Receipt)

	require.Len(t, eth.sent, 1)
	tx := eth.sent[0]
	assert.Equal(t, uint64(9), tx.Nonce())
	assert.Equal(t, uint64(2_300_000), tx.Gas())
	// Suggested 50 gwei is above the 40 gwei floor and kept as-is
	assert.Zero(t, tx.GasPrice().Cmp(big.NewInt(50_000_000_000)))
	assert.Equal(t, sub.TxHash, tx.Hash())
}

func TestSendNativeCarriesValueAndFixedGas(t *testing.T) {
	eth := &fakeEth{
		nonce:    3,
		gasPrice: big.NewInt(50_000_000_000),
		receipt:  &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
	client := newTestClient(eth, time.Second)

	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	amount := big.NewInt(1_500_000_000_000_000_000)
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	sub, err := client.SendNative(context.Background(), key, to, amount)
	require.NoError(t, err)
	require.NotNil(t, sub.Receipt)

	require.Len(t, eth.sent, 1)
	tx := eth.sent[0]
	assert.Zero(t, tx.Value().Cmp(amount))
	assert.Equal(t, uint64(23_000), tx.Gas())
	assert.Empty(t, tx.Data())
	assert.Equal(t, &to, tx.To())
}

func TestSubmitSendFailureSurfacesHash(t *testing.T) {
	eth := &fakeEth{
		gasPrice: big.NewInt(50_000_000_000),
		sendErr:  errors.New("insufficient funds"),
	}
	client := newTestClient(eth, time.Second)

	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	sub, err := client.Submit(context.Background(), key, common.Address{}, nil)
	assert.ErrorIs(t, err, domain.ErrChainSubmissionFailed)
	// The hash is known even though the send failed
	require.NotNil(t, sub)
	assert.NotEqual(t, common.Hash{}, sub.TxHash)
}

func TestSubmitReceiptTimeoutReturnsPending(t *testing.T) {
	eth := &fakeEth{
		gasPrice:   big.NewInt(50_000_000_000),
		receiptErr: errors.New("not found"),
	}
	client := newTestClient(eth, 50*time.Millisecond)

	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	sub, err := client.Submit(context.Background(), key, common.Address{}, nil)
	require.NoError(t, err)
	assert.Nil(t, sub.Receipt)
	assert.NotEqual(t, common.Hash{}, sub.TxHash)
	assert.GreaterOrEqual(t, eth.receiptPoll, 1)
}

func TestSubmitRevertedTransaction(t *testing.T) {
	eth := &fakeEth{
		gasPrice: big.NewInt(50_000_000_000),
		receipt:  &types.Receipt{Status: types.ReceiptStatusFailed},
	}
	client := newTestClient(eth, time.Second)

	key, err := ParseKey(testKeyHex)
	require.NoError(t, err)

	sub, err := client.Submit(context.Background(), key, common.Address{}, nil)
	assert.ErrorIs(t, err, domain.ErrChainSubmissionFailed)
	assert.Nil(t, sub.Receipt)
}

func TestGasPriceAppliesFloor(t *testing.T) {
	eth := &fakeEth{gasPrice: big.NewInt(1_000_000_000)}
	client := newTestClient(eth, time.Second)

	price, err := client.GasPrice(context.Background())
	require.NoError(t, err)
	assert.Zero(t, price.Cmp(big.NewInt(40_000_000_000)))
}
