package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/gesoten/nft-game-gateway/internal/adapter"
	"github.com/gesoten/nft-game-gateway/internal/chain"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/logger"
	"github.com/gesoten/nft-game-gateway/internal/registry"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// Config holds reconciler settings
type Config struct {
	Interval  time.Duration
	BatchSize int
	PoolSize  int
}

// Store is the slice of the data layer the reconciler settles against.
// Satisfied by store.Store.
type Store interface {
	ListUnsettledSubmissions(ctx context.Context, network domain.Network, limit int) ([]schema.PendingSubmission, error)
	SettlePendingSubmission(ctx context.Context, id uint64) error
	BumpSubmissionAttempts(ctx context.Context, id uint64) error
	SetAssetTokenID(ctx context.Context, id string, tokenID int64) error
}

// Reconciler settles submissions whose receipts did not arrive within
// the submission window. It only ever polls for receipts; a transaction
// is never re-submitted, because the original may still land and a
// duplicate would double-spend the operation.
type Reconciler struct {
	config    Config
	networks  *registry.Networks
	store     Store
	clock     adapter.Clock
	pool      pond.Pool
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// New creates a pending-submission reconciler
func New(config Config, networks *registry.Networks, st Store, clock adapter.Clock) *Reconciler {
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 50
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	return &Reconciler{
		config:    config,
		networks:  networks,
		store:     st,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the reconciler's polling loop
func (r *Reconciler) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("reconciler already running")
	}
	defer func() {
		r.running.Store(false)
		close(r.stoppedCh)
	}()

	logger.Info("Starting submission reconciler",
		zap.Duration("interval", r.config.Interval),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Int("pool_size", r.config.PoolSize),
	)

	r.pool = pond.NewPool(
		r.config.PoolSize,
		pond.WithQueueSize(r.config.BatchSize),
		pond.WithContext(ctx),
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Submission reconciler stopping due to context cancellation", zap.Error(ctx.Err()))
			r.cleanup()
			return nil
		case <-r.stopChan:
			logger.Info("Submission reconciler stop requested")
			r.cleanup()
			return nil
		case <-ticker.C:
			if err := r.runCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error(err)
				}
			}
		}
	}
}

// Stop gracefully stops the reconciler
func (r *Reconciler) Stop(ctx context.Context) error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}

	close(r.stopChan)

	select {
	case <-r.stoppedCh:
		logger.Info("Submission reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.Warn("Submission reconciler stop interrupted by context timeout")
		return ctx.Err()
	}
}

func (r *Reconciler) cleanup() {
	if r.pool != nil {
		r.pool.StopAndWait()
	}
}

// runCycle polls one batch of unsettled submissions per network
func (r *Reconciler) runCycle(ctx context.Context) error {
	startTime := r.clock.Now()
	var polled int

	for _, network := range domain.Networks() {
		client, err := r.networks.Resolve(network)
		if err != nil {
			// Not every deployment configures every network.
			continue
		}

		subs, err := r.store.ListUnsettledSubmissions(ctx, network, r.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list unsettled submissions: %w", err)
		}

		for _, sub := range subs {
			sub := sub
			polled++
			r.pool.Submit(func() {
				r.settle(ctx, client, sub)
			})
		}
	}

	if polled > 0 {
		logger.Debug("Reconcile cycle completed",
			zap.Int("polled", polled),
			zap.Duration("duration", r.clock.Since(startTime)),
		)
	}
	return nil
}

// settle checks one submission's receipt and updates the ledger
func (r *Reconciler) settle(ctx context.Context, client chain.Client, sub schema.PendingSubmission) {
	receipt, err := client.Receipt(ctx, common.HexToHash(sub.TxHash))
	if err != nil {
		// Still unmined. Count the attempt and try again next cycle.
		if err := r.store.BumpSubmissionAttempts(ctx, sub.ID); err != nil {
			logger.Error(err, zap.Uint64("submission_id", sub.ID))
		}
		return
	}

	if receipt.Status == types.ReceiptStatusFailed {
		logger.Warn("reconciled transaction reverted",
			zap.String("tx_hash", sub.TxHash),
			zap.String("network", string(sub.Network)),
			zap.String("kind", string(sub.Kind)),
		)
	} else {
		r.applyReceipt(ctx, sub, receipt)
	}

	if err := r.store.SettlePendingSubmission(ctx, sub.ID); err != nil {
		logger.Error(err, zap.Uint64("submission_id", sub.ID))
		return
	}

	logger.Info("settled pending submission",
		zap.String("tx_hash", sub.TxHash),
		zap.String("network", string(sub.Network)),
		zap.Uint64("status", receipt.Status),
	)
}

// applyReceipt backfills ledger state that was unknown at submission
// time. Only mints carry deferred state: the token id assigned by the
// contract.
func (r *Reconciler) applyReceipt(ctx context.Context, sub schema.PendingSubmission, receipt *types.Receipt) {
	if sub.Kind != domain.OperationMint || sub.AssetID == nil {
		return
	}

	tokenID := chain.DecodeTokenID(receipt)
	if err := r.store.SetAssetTokenID(ctx, *sub.AssetID, tokenID); err != nil {
		logger.Error(err,
			zap.String("asset_id", *sub.AssetID),
			zap.Int64("token_id", tokenID),
		)
	}
}
