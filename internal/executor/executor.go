package executor

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/gesoten/nft-game-gateway/internal/chain"
	"github.com/gesoten/nft-game-gateway/internal/content"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/logger"
	"github.com/gesoten/nft-game-gateway/internal/registry"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// Store is the slice of the data layer the executor writes through.
// Satisfied by store.Store.
type Store interface {
	CreateAssetWithTransaction(ctx context.Context, asset *schema.Asset, txn *schema.AssetTransaction) error
	GetAssetByID(ctx context.Context, id string) (*schema.Asset, error)
	GetAssetByToken(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) (*schema.Asset, error)
	AppendAssetTransaction(ctx context.Context, txn *schema.AssetTransaction, newOwner string) error
	MarkAssetBurned(ctx context.Context, network domain.Network, contractAddress string, tokenID int64) error
	UpdateAssetMetadata(ctx context.Context, id string, tokenMetadata string, attrs datatypes.JSON) error
	CreatePendingSubmission(ctx context.Context, sub *schema.PendingSubmission) error
}

// Executor runs token operations end to end: validate, pack calldata,
// submit to the chain, then persist. The chain write always precedes the
// local write; a persistence failure after a confirmed chain write is
// logged and the operation still reports success, because the chain is
// the source of truth.
type Executor struct {
	networks  *registry.Networks
	contracts *registry.Contracts
	storage   content.Storage
	store     Store
	locks     *accountLocks
}

// New creates an operation executor
func New(networks *registry.Networks, contracts *registry.Contracts, storage content.Storage, st Store) *Executor {
	return &Executor{
		networks:  networks,
		contracts: contracts,
		storage:   storage,
		store:     st,
		locks:     newAccountLocks(),
	}
}

// Client resolves the chain client configured for a network
func (e *Executor) Client(network domain.Network) (chain.Client, error) {
	return e.networks.Resolve(network)
}

// MintInput describes one mint request
type MintInput struct {
	Network    domain.Network
	Standard   domain.Standard
	UserID     int64
	SigningKey string
	ToAddress  string
	TokenURI   string
	Thumbnail  string
	// TokenID and Amount apply to ERC1155 mints only; ERC721 ids are
	// assigned by the contract and decoded from the receipt.
	TokenID    int64
	Amount     int64
	Attributes []domain.Attribute
}

// MintFileInput describes a mint whose metadata and image are uploaded
// to content storage first
type MintFileInput struct {
	MintInput
	Name        string
	Description string
	ExternalURL string
	Image       []byte
}

// TransferInput describes one transfer request
type TransferInput struct {
	Network    domain.Network
	Standard   domain.Standard
	SigningKey string
	ToAddress  string
	TokenID    int64
	Amount     int64
}

// BurnInput describes one burn request
type BurnInput struct {
	Network    domain.Network
	Standard   domain.Standard
	SigningKey string
	TokenID    int64
	Amount     int64
}

// NativeTransferInput describes one native-coin transfer request.
// Amount is denominated in the network's native unit, not wei.
type NativeTransferInput struct {
	Network    domain.Network
	SigningKey string
	ToAddress  string
	Amount     float64
}

// SetBaseURIInput describes a base-URI update on the multi-token
// contract. Contract-level configuration, no per-token record.
type SetBaseURIInput struct {
	Network    domain.Network
	SigningKey string
	BaseURI    string
}

// UpdateMetadataInput describes one metadata update request. AssetID is
// the ledger record id of the token to update.
type UpdateMetadataInput struct {
	Network    domain.Network
	Standard   domain.Standard
	SigningKey string
	AssetID    string
	TokenURI   string
	Thumbnail  string
	Attributes []domain.Attribute
}

// Mint mints a token that already has a metadata URI
func (e *Executor) Mint(ctx context.Context, input MintInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}
	if !client.ValidateAddress(input.ToAddress) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, input.ToAddress)
	}

	contract, err := e.contracts.Resolve(input.Network, input.Standard)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(input.ToAddress)
	var data []byte
	switch input.Standard {
	case domain.StandardERC1155:
		amount := input.Amount
		if amount <= 0 {
			amount = 1
		}
		data, err = contract.Pack("mint", to, big.NewInt(input.TokenID), big.NewInt(amount), []byte{})
	default:
		data, err = contract.Pack("safeMint", to, input.TokenURI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint calldata: %w", err)
	}

	sub, err := e.submit(ctx, client, key, contract.Address, data)
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:    sub.TxHash.Hex(),
		TokenURI:  input.TokenURI,
		Thumbnail: input.Thumbnail,
	}

	var tokenID *int64
	if sub.Receipt != nil {
		tid := input.TokenID
		if input.Standard != domain.StandardERC1155 {
			tid = chain.DecodeTokenID(sub.Receipt)
		}
		tokenID = &tid
		result.TokenID = tid
	} else {
		result.Pending = true
		if input.Standard == domain.StandardERC1155 {
			// The caller chose the id; the pending receipt changes
			// nothing about it.
			tid := input.TokenID
			tokenID = &tid
			result.TokenID = tid
		}
	}

	asset := &schema.Asset{
		ID:              uuid.New().String(),
		UserID:          input.UserID,
		OwnerAddress:    input.ToAddress,
		ContractAddress: contract.Address.Hex(),
		TokenID:         tokenID,
		TokenMetadata:   input.TokenURI,
		Thumbnail:       input.Thumbnail,
		Network:         input.Network,
		MetadataAttr:    marshalAttributes(input.Attributes),
	}
	txn := &schema.AssetTransaction{
		ID:          uuid.New().String(),
		TxHash:      result.TxHash,
		FromAddress: chain.AddressOf(key).Hex(),
		ToAddress:   input.ToAddress,
		Kind:        domain.OperationMint,
	}

	assetID := &asset.ID
	if err := e.store.CreateAssetWithTransaction(ctx, asset, txn); err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("tx_hash", result.TxHash),
			zap.String("network", string(input.Network)),
		)
		assetID = nil
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationMint, result.TxHash, txn.FromAddress, assetID)
	}

	return result, nil
}

// MintWithFile uploads the metadata and image to content storage, then
// mints against the resulting URI. Nothing touches the chain until the
// upload has succeeded.
func (e *Executor) MintWithFile(ctx context.Context, input MintFileInput) (*domain.OperationResult, error) {
	uploaded, err := e.storage.Upload(ctx, content.UploadInput{
		Name:        input.Name,
		Description: input.Description,
		ExternalURL: input.ExternalURL,
		Attributes:  input.Attributes,
		Image:       input.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentUploadFailed, err)
	}

	input.TokenURI = uploaded.MetadataURI
	input.Thumbnail = uploaded.ThumbnailURI
	return e.Mint(ctx, input.MintInput)
}

// Transfer moves a token to another account and appends the transfer to
// the asset's local history
func (e *Executor) Transfer(ctx context.Context, input TransferInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}
	if !client.ValidateAddress(input.ToAddress) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, input.ToAddress)
	}

	contract, err := e.contracts.Resolve(input.Network, input.Standard)
	if err != nil {
		return nil, err
	}

	from := chain.AddressOf(key)
	to := common.HexToAddress(input.ToAddress)
	var data []byte
	switch input.Standard {
	case domain.StandardERC1155:
		amount := input.Amount
		if amount <= 0 {
			amount = 1
		}
		data, err = contract.Pack("safeTransferFrom", from, to, big.NewInt(input.TokenID), big.NewInt(amount), []byte{})
	default:
		data, err = contract.Pack("transferFrom", from, to, big.NewInt(input.TokenID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer calldata: %w", err)
	}

	sub, err := e.submit(ctx, client, key, contract.Address, data)
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:  sub.TxHash.Hex(),
		TokenID: input.TokenID,
		Pending: sub.Receipt == nil,
	}

	e.recordTransfer(ctx, input, contract.Address.Hex(), from.Hex(), result)
	return result, nil
}

// recordTransfer appends the transfer to the asset history. Lookup and
// write are best-effort: the token may have been minted outside this
// gateway and have no local record.
func (e *Executor) recordTransfer(ctx context.Context, input TransferInput, contractAddress, fromAddress string, result *domain.OperationResult) {
	txn := &schema.AssetTransaction{
		ID:          uuid.New().String(),
		TxHash:      result.TxHash,
		FromAddress: fromAddress,
		ToAddress:   input.ToAddress,
		Kind:        domain.OperationTransfer,
	}

	asset, err := e.store.GetAssetByToken(ctx, input.Network, contractAddress, input.TokenID)
	if err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("tx_hash", result.TxHash))
		return
	}
	if asset != nil {
		txn.AssetID = &asset.ID
	}

	if err := e.store.AppendAssetTransaction(ctx, txn, input.ToAddress); err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("tx_hash", result.TxHash))
		return
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationTransfer, result.TxHash, fromAddress, txn.AssetID)
	}
}

// Burn destroys a token on chain, then flags the local record. The chain
// write decides the outcome; a missing local record only loses the flag.
func (e *Executor) Burn(ctx context.Context, input BurnInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}

	contract, err := e.contracts.Resolve(input.Network, input.Standard)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch input.Standard {
	case domain.StandardERC1155:
		amount := input.Amount
		if amount <= 0 {
			amount = 1
		}
		data, err = contract.Pack("burn", chain.AddressOf(key), big.NewInt(input.TokenID), big.NewInt(amount))
	default:
		data, err = contract.Pack("burn", big.NewInt(input.TokenID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pack burn calldata: %w", err)
	}

	sub, err := e.submit(ctx, client, key, contract.Address, data)
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:  sub.TxHash.Hex(),
		TokenID: input.TokenID,
		Pending: sub.Receipt == nil,
	}

	if err := e.store.MarkAssetBurned(ctx, input.Network, contract.Address.Hex(), input.TokenID); err != nil {
		// Tokens minted outside this gateway have no record to flag.
		logger.Warn("no local record flagged for burn",
			zap.String("tx_hash", result.TxHash),
			zap.Int64("token_id", input.TokenID),
			zap.Error(err),
		)
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationBurn, result.TxHash, chain.AddressOf(key).Hex(), nil)
	}

	return result, nil
}

// UpdateMetadata points a token at a new metadata URI. Unlike burn, the
// local record is checked first: updating a token this gateway never
// minted is rejected before anything is signed.
func (e *Executor) UpdateMetadata(ctx context.Context, input UpdateMetadataInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}

	contract, err := e.contracts.Resolve(input.Network, input.Standard)
	if err != nil {
		return nil, err
	}

	asset, err := e.store.GetAssetByID(ctx, input.AssetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}
	if asset == nil || asset.TokenID == nil {
		return nil, fmt.Errorf("%w: asset %s", domain.ErrRecordNotFound, input.AssetID)
	}
	tokenID := *asset.TokenID

	data, err := contract.Pack("updateNftTokenUri", big.NewInt(tokenID), input.TokenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to pack metadata calldata: %w", err)
	}

	sub, err := e.submit(ctx, client, key, contract.Address, data)
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:   sub.TxHash.Hex(),
		TokenID:  tokenID,
		TokenURI: input.TokenURI,
		Pending:  sub.Receipt == nil,
	}

	if err := e.store.UpdateAssetMetadata(ctx, asset.ID, input.TokenURI, marshalAttributes(input.Attributes)); err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("asset_id", asset.ID),
			zap.String("tx_hash", result.TxHash),
		)
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationMetadataUpdate, result.TxHash, chain.AddressOf(key).Hex(), &asset.ID)
	}

	return result, nil
}

// TransferNative sends native coin to another account. No asset exists
// for a coin movement; only the transaction history records it.
func (e *Executor) TransferNative(ctx context.Context, input NativeTransferInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}
	if !client.ValidateAddress(input.ToAddress) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, input.ToAddress)
	}

	from := chain.AddressOf(key)
	release := e.locks.acquire(from.Hex())
	sub, err := client.SendNative(ctx, key, common.HexToAddress(input.ToAddress), NativeToWei(input.Amount))
	release()
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:  sub.TxHash.Hex(),
		Pending: sub.Receipt == nil,
	}

	txn := &schema.AssetTransaction{
		ID:          uuid.New().String(),
		TxHash:      result.TxHash,
		FromAddress: from.Hex(),
		ToAddress:   input.ToAddress,
		Kind:        domain.OperationTransfer,
	}
	if err := e.store.AppendAssetTransaction(ctx, txn, ""); err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("tx_hash", result.TxHash))
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationTransfer, result.TxHash, from.Hex(), nil)
	}

	return result, nil
}

// SetBaseURI points the multi-token contract at a new metadata base
// URI. Affects every token the contract serves, so nothing in the
// ledger is touched.
func (e *Executor) SetBaseURI(ctx context.Context, input SetBaseURIInput) (*domain.OperationResult, error) {
	key, err := chain.ParseKey(input.SigningKey)
	if err != nil {
		return nil, err
	}

	client, err := e.networks.Resolve(input.Network)
	if err != nil {
		return nil, err
	}

	contract, err := e.contracts.Resolve(input.Network, domain.StandardERC1155)
	if err != nil {
		return nil, err
	}

	data, err := contract.Pack("setBaseUri", input.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to pack base uri calldata: %w", err)
	}

	sub, err := e.submit(ctx, client, key, contract.Address, data)
	if err != nil {
		return partialResult(sub), err
	}

	result := &domain.OperationResult{
		TxHash:  sub.TxHash.Hex(),
		Pending: sub.Receipt == nil,
	}
	if result.Pending {
		e.trackPending(ctx, input.Network, domain.OperationMetadataUpdate, result.TxHash, chain.AddressOf(key).Hex(), nil)
	}

	return result, nil
}

// submit serializes submissions per signing account and sends the
// transaction through the network client
func (e *Executor) submit(ctx context.Context, client chain.Client, key *ecdsa.PrivateKey, to common.Address, data []byte) (*chain.Submission, error) {
	release := e.locks.acquire(chain.AddressOf(key).Hex())
	defer release()

	return client.Submit(ctx, key, to, data)
}

// partialResult surfaces the hash of a failed submission, when one was
// obtained, so callers can include it in their error reporting.
func partialResult(sub *chain.Submission) *domain.OperationResult {
	if sub == nil {
		return nil
	}
	return &domain.OperationResult{TxHash: sub.TxHash.Hex()}
}

// trackPending records a submission whose receipt did not arrive within
// the window so the reconciler can settle it later. Best-effort: a
// failed insert is logged, never surfaced.
func (e *Executor) trackPending(ctx context.Context, network domain.Network, kind domain.OperationKind, txHash, account string, assetID *string) {
	sub := &schema.PendingSubmission{
		TxHash:  txHash,
		Network: network,
		Kind:    kind,
		Account: account,
		AssetID: assetID,
	}
	if err := e.store.CreatePendingSubmission(ctx, sub); err != nil {
		logger.Error(fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err),
			zap.String("tx_hash", txHash),
		)
	}
}

// marshalAttributes serializes an attribute list for storage. An empty
// list stores as NULL, not as an empty array.
func marshalAttributes(attrs []domain.Attribute) datatypes.JSON {
	if len(attrs) == 0 {
		return nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
