package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/gesoten/nft-game-gateway/internal/adapter"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/logger"
)

// gweiWei is the number of wei in one gwei.
var gweiWei = big.NewInt(1_000_000_000)

// nativeTransferGas covers a plain value transfer; no calldata runs.
const nativeTransferGas = 23_000

// Client adapts one blockchain network's RPC surface: address
// validation, balance lookup, nonce and gas price retrieval, signing,
// submission, and receipt retrieval. One instance per supported network.
type Client interface {
	// Network returns the network this client serves
	Network() domain.Network

	// ValidateAddress reports whether the address passes the network's format validation
	ValidateAddress(address string) bool

	// CreateWallet generates a fresh account
	CreateWallet() (*domain.Wallet, error)

	// Balance returns the native-unit balance of the address in wei
	Balance(ctx context.Context, address string) (*big.Int, error)

	// GasPrice returns the suggested gas price, never below the configured per-network floor
	GasPrice(ctx context.Context) (*big.Int, error)

	// PendingNonce returns the next nonce for the account including pending transactions
	PendingNonce(ctx context.Context, account common.Address) (uint64, error)

	// EstimateGas estimates the gas required by a contract call
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)

	// Submit signs the call payload with the key and submits it, then
	// waits for the receipt. A nil Receipt on a nil error means the
	// transaction was accepted but not yet mined within the receipt
	// window; the caller must track it for reconciliation, not retry.
	Submit(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (*Submission, error)

	// SendNative signs and submits a plain value transfer of the native
	// coin, in wei. Same receipt semantics as Submit.
	SendNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amountWei *big.Int) (*Submission, error)

	// Receipt fetches the receipt of a previously submitted transaction,
	// or an error while it is still unmined
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Close closes the underlying connection
	Close()
}

// Submission is the outcome of a transaction submission. TxHash is set
// whenever a hash was derived, including on failed submissions.
type Submission struct {
	TxHash  common.Hash
	Receipt *types.Receipt
}

// Config holds per-network client settings
type Config struct {
	Network           domain.Network
	ChainID           int64
	GasLimit          uint64
	GasPriceFloorGwei int64
	ReceiptTimeout    time.Duration
}

type client struct {
	cfg   Config
	eth   adapter.EthClient
	clock adapter.Clock
}

// NewClient creates a chain client for one network
func NewClient(cfg Config, eth adapter.EthClient, clock adapter.Clock) Client {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 2_300_000
	}
	if cfg.ReceiptTimeout == 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	return &client{cfg: cfg, eth: eth, clock: clock}
}

func (c *client) Network() domain.Network {
	return c.cfg.Network
}

func (c *client) ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

func (c *client) CreateWallet() (*domain.Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	return &domain.Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: fmt.Sprintf("0x%x", crypto.FromECDSA(key)),
	}, nil
}

func (c *client) Balance(ctx context.Context, address string) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// GasPrice returns the node-suggested gas price clamped to the
// configured floor. The suggestion is truncated to whole gwei before
// comparison, mirroring how operators reason about the floor.
func (c *client) GasPrice(ctx context.Context) (*big.Int, error) {
	suggested, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	return FloorGasPrice(suggested, c.cfg.GasPriceFloorGwei), nil
}

// FloorGasPrice clamps a suggested wei gas price to a gwei floor.
func FloorGasPrice(suggested *big.Int, floorGwei int64) *big.Int {
	suggestedGwei := new(big.Int).Div(suggested, gweiWei)
	if suggestedGwei.Cmp(big.NewInt(floorGwei)) < 0 {
		suggestedGwei = big.NewInt(floorGwei)
	}
	return new(big.Int).Mul(suggestedGwei, gweiWei)
}

func (c *client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	return c.eth.PendingNonceAt(ctx, account)
}

func (c *client) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
}

func (c *client) Submit(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, data []byte) (*Submission, error) {
	return c.send(ctx, key, to, big.NewInt(0), c.cfg.GasLimit, data)
}

func (c *client) SendNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amountWei *big.Int) (*Submission, error) {
	return c.send(ctx, key, to, amountWei, nativeTransferGas, nil)
}

func (c *client) send(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int, gasLimit uint64, data []byte) (*Submission, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	// Gas price and nonce are always freshly fetched. Caching either
	// across submissions from the same account causes nonce collisions.
	gasPrice, err := c.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrChainSubmissionFailed, err)
	}
	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrChainSubmissionFailed, err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signer := types.LatestSignerForChainID(big.NewInt(c.cfg.ChainID))
	signedTx, err := types.SignTx(tx, signer, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrChainSubmissionFailed, err)
	}

	sub := &Submission{TxHash: signedTx.Hash()}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		// The hash is already known; surface it for manual reconciliation.
		return sub, fmt.Errorf("%w: %s", domain.ErrChainSubmissionFailed, err)
	}

	receipt, err := c.waitReceipt(ctx, sub.TxHash)
	if err != nil {
		// Submitted but not mined within the window. Not a failure:
		// the transaction may still land.
		logger.Warn("receipt not available within window",
			zap.String("network", string(c.cfg.Network)),
			zap.String("tx_hash", sub.TxHash.Hex()),
		)
		return sub, nil
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return sub, fmt.Errorf("%w: transaction reverted", domain.ErrChainSubmissionFailed)
	}

	sub.Receipt = receipt
	return sub, nil
}

// waitReceipt polls for the transaction receipt with exponential backoff
// until the configured receipt window elapses.
func (c *client) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = c.cfg.ReceiptTimeout

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		r, err := c.eth.TransactionReceipt(ctx, txHash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

func (c *client) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.eth.TransactionReceipt(ctx, txHash)
}

func (c *client) Close() {
	c.eth.Close()
}

// ParseKey parses a hex-encoded private key into a signing key. A key
// that does not derive a valid account fails with ErrInvalidSigningKey.
func ParseKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	trimmed := privateKeyHex
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}

	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSigningKey, err)
	}
	return key, nil
}

// AddressOf returns the account address derived from a signing key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// DecodeTokenID extracts the token id from the first event log of a
// receipt, using the standardized Transfer topic layout (topics[3] is
// the indexed token id). Decoding is tolerant: any shape mismatch
// yields 0 rather than an error, because by the time logs are inspected
// the chain write has already succeeded.
func DecodeTokenID(receipt *types.Receipt) int64 {
	if receipt == nil || len(receipt.Logs) == 0 {
		return 0
	}

	topics := receipt.Logs[0].Topics
	if len(topics) < 4 {
		return 0
	}

	id := new(big.Int).SetBytes(topics[3].Bytes())
	if !id.IsInt64() {
		return 0
	}
	return id.Int64()
}
