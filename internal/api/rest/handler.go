package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gesoten/nft-game-gateway/internal/api/middleware"
	"github.com/gesoten/nft-game-gateway/internal/auth"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/executor"
	"github.com/gesoten/nft-game-gateway/internal/lottery"
	"github.com/gesoten/nft-game-gateway/internal/store"
)

// Handler defines the interface for REST API handlers. Paths, methods
// and field names follow the deployed wire contract; network-dependent
// endpoints read the network_id header through RequireNetwork.
type Handler interface {
	// Login exchanges operator credentials for a bearer token
	// POST /api/login
	Login(c *gin.Context)

	// CreateWallet generates a fresh account on the selected network
	// POST /api/create-wallet
	CreateWallet(c *gin.Context)

	// ValidateAddress checks an address against the network's format rules
	// GET /api/validate-address?address=<a>
	ValidateAddress(c *gin.Context)

	// GetBalance returns the native and wei balance of an address
	// GET /api/balance?address=<a>
	GetBalance(c *gin.Context)

	// MintNFT mints an ERC721 token against an existing metadata URI
	// POST /api/mint-nft
	MintNFT(c *gin.Context)

	// MintNFTWithFile uploads metadata and image first, then mints
	// POST /api/mint-nft-with-file (multipart)
	MintNFTWithFile(c *gin.Context)

	// UpdateTokenMetadata points a minted token at a new metadata URI
	// POST /api/update-token-metadata
	UpdateTokenMetadata(c *gin.Context)

	// Transfer moves a token to another account
	// POST /api/transfer
	Transfer(c *gin.Context)

	// Burn destroys a token
	// POST /api/burn
	Burn(c *gin.Context)

	// NativeCoinTransfer sends native coin to another account
	// POST /api/native-coin-transfer
	NativeCoinTransfer(c *gin.Context)

	// ListNFTByOwner retrieves tracked assets held by an owner
	// GET /api/nft-by-owner-address?ownerAddress=<a>&pageIndex=<i>&pageSize=<s>
	ListNFTByOwner(c *gin.Context)

	// GetNFTInfo retrieves the record behind a transaction hash
	// GET /api/nft-info?txHash=<hash>
	GetNFTInfo(c *gin.Context)

	// EstimateMintGas predicts mint cost without submitting
	// GET /api/estimate-gas-for-mint?ownerAddress=<a>
	EstimateMintGas(c *gin.Context)

	// MintERC1155, TransferERC1155 and BurnERC1155 are the multi-token
	// variants of the operations above
	// POST /api/erc1155/mint-nft | /api/erc1155/transfer | /api/erc1155/burn-nft
	MintERC1155(c *gin.Context)
	TransferERC1155(c *gin.Context)
	BurnERC1155(c *gin.Context)

	// SetBaseURI repoints the multi-token contract's metadata base URI
	// POST /api/erc1155/set-base-uri
	SetBaseURI(c *gin.Context)

	// Game collection endpoints, see game_handler.go
	VerifyGameToken(c *gin.Context)
	ListGames(c *gin.Context)
	GetGameByID(c *gin.Context)
	AssignPack(c *gin.Context)
	OpenPack(c *gin.Context)
	ListUserPacks(c *gin.Context)
	ListUserItems(c *gin.Context)
	PickPackItem(c *gin.Context)
	GetItemByID(c *gin.Context)
	ListCompounds(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /api/health-check
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	authService *auth.Service
	executor    *executor.Executor
	engine      *lottery.Engine
	store       store.Store
}

// NewHandler creates a new REST API handler
func NewHandler(authService *auth.Service, exec *executor.Executor, engine *lottery.Engine, st store.Store) Handler {
	return &handler{
		authService: authService,
		executor:    exec,
		engine:      engine,
		store:       st,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login exchanges operator credentials for a bearer token
func (h *handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		respondBadRequest(c, "Bad request")
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondBadRequest(c, "Wrong username or password")
			return
		}
		respondInternal(c, err)
		return
	}

	// The expiry field name and its value are frozen: deployed clients
	// parse "exprired_in" and expect 7200.
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"token":       token,
		"exprired_in": 7200,
	})
}

// CreateWallet generates a fresh account on the selected network
func (h *handler) CreateWallet(c *gin.Context) {
	client, err := h.executor.Client(middleware.RequestNetwork(c))
	if err != nil {
		respondInternal(c, err)
		return
	}

	wallet, err := client.CreateWallet()
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"address":    wallet.Address,
		"privateKey": wallet.PrivateKey,
	})
}

// ValidateAddress checks an address against the network's format rules.
// The success flag mirrors the validity verdict.
func (h *handler) ValidateAddress(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		respondBadRequest(c, "Bad request")
		return
	}

	client, err := h.executor.Client(middleware.RequestNetwork(c))
	if err != nil {
		respondInternal(c, err)
		return
	}

	if client.ValidateAddress(address) {
		respondOK(c, gin.H{"message": "Address is valid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": "Address is invalid",
	})
}

// GetBalance returns the native and wei balance of an address
func (h *handler) GetBalance(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		respondBadRequest(c, "Bad request")
		return
	}

	client, err := h.executor.Client(middleware.RequestNetwork(c))
	if err != nil {
		respondInternal(c, err)
		return
	}
	if !client.ValidateAddress(address) {
		respondBadRequest(c, "Address is invalid")
		return
	}

	balance, err := client.Balance(c.Request.Context(), address)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"symbol":       client.Network().NativeSymbol(),
		"balance":      executor.WeiToNative(balance),
		"balanceInWei": balance.String(),
	})
}

// MintNFT mints an ERC721 token against an existing metadata URI
func (h *handler) MintNFT(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if req.ReceiveAddress == "" {
		respondBadRequest(c, "receiver is required!")
		return
	}

	result, err := h.executor.Mint(c.Request.Context(), executor.MintInput{
		Network:    middleware.RequestNetwork(c),
		Standard:   domain.StandardERC721,
		UserID:     req.ClientUserID,
		SigningKey: req.OwnerPrivateKey,
		ToAddress:  req.ReceiveAddress,
		TokenURI:   req.TokenMetaData,
		Thumbnail:  req.Thumbnail,
		Attributes: req.Attributes,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"txHash":  result.TxHash,
		"tokenId": result.TokenID,
	})
}

// MintERC1155 mints a multi-token with an explicit id and amount
func (h *handler) MintERC1155(c *gin.Context) {
	var req mint1155Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if req.ReceiveAddress == "" {
		respondBadRequest(c, "receiver is required!")
		return
	}

	result, err := h.executor.Mint(c.Request.Context(), executor.MintInput{
		Network:    middleware.RequestNetwork(c),
		Standard:   domain.StandardERC1155,
		UserID:     req.ClientUserID,
		SigningKey: req.OwnerPrivateKey,
		ToAddress:  req.ReceiveAddress,
		TokenID:    req.TokenID,
		Amount:     req.Amount,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"txHash":  result.TxHash,
		"tokenId": result.TokenID,
	})
}

// MintNFTWithFile uploads metadata and image first, then mints
func (h *handler) MintNFTWithFile(c *gin.Context) {
	input, err := parseMintFileForm(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.executor.MintWithFile(c.Request.Context(), *input)
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"message": "Mint NFT successfully",
		"data": gin.H{
			"txHash":        result.TxHash,
			"tokenId":       result.TokenID,
			"tokenMetadata": result.TokenURI,
		},
	})
}

// parseMintFileForm reads the multipart mint form. The image arrives in
// the "thumbnail" file field.
func parseMintFileForm(c *gin.Context) (*executor.MintFileInput, error) {
	signingKey := c.PostForm("owerPrivateKey")
	if signingKey == "" {
		return nil, errors.New("fromPrivate is required!")
	}
	receiver := c.PostForm("receiveAddress")
	if receiver == "" {
		return nil, errors.New("receiver is required!")
	}

	fileHeader, err := c.FormFile("thumbnail")
	if err != nil {
		return nil, errors.New("thumbnail file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var attrs []domain.Attribute
	if raw := c.PostForm("attributes"); raw != "" {
		if err := parseAttributes(raw, &attrs); err != nil {
			return nil, err
		}
	}

	userID, _ := strconv.ParseInt(c.PostForm("clientUserId"), 10, 64)

	return &executor.MintFileInput{
		MintInput: executor.MintInput{
			Network:    middleware.RequestNetwork(c),
			Standard:   domain.StandardERC721,
			UserID:     userID,
			SigningKey: signingKey,
			ToAddress:  receiver,
			Attributes: attrs,
		},
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		ExternalURL: c.PostForm("external_url"),
		Image:       image,
	}, nil
}

// UpdateTokenMetadata points a minted token at a new metadata URI
func (h *handler) UpdateTokenMetadata(c *gin.Context) {
	var req updateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if req.NFTInfoID == "" {
		respondBadRequest(c, "nftInfoId is required!")
		return
	}

	result, err := h.executor.UpdateMetadata(c.Request.Context(), executor.UpdateMetadataInput{
		Network:    middleware.RequestNetwork(c),
		Standard:   domain.StandardERC721,
		SigningKey: req.OwnerPrivateKey,
		AssetID:    req.NFTInfoID,
		TokenURI:   req.TokenMetaData,
		Thumbnail:  req.Thumbnail,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"txHash":  result.TxHash,
		"tokenId": result.TokenID,
	})
}

// Transfer moves an ERC721 token to another account
func (h *handler) Transfer(c *gin.Context) {
	h.transfer(c, domain.StandardERC721)
}

// TransferERC1155 moves a multi-token amount to another account
func (h *handler) TransferERC1155(c *gin.Context) {
	h.transfer(c, domain.StandardERC1155)
}

func (h *handler) transfer(c *gin.Context, standard domain.Standard) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if req.ReceiveAddress == "" {
		respondBadRequest(c, "receiver is required!")
		return
	}
	if req.TokenID == nil {
		respondBadRequest(c, "tokenId is required!")
		return
	}

	result, err := h.executor.Transfer(c.Request.Context(), executor.TransferInput{
		Network:    middleware.RequestNetwork(c),
		Standard:   standard,
		SigningKey: req.OwnerPrivateKey,
		ToAddress:  req.ReceiveAddress,
		TokenID:    *req.TokenID,
		Amount:     req.Amount,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"txHash":  result.TxHash,
		"tokenId": result.TokenID,
	})
}

// NativeCoinTransfer sends native coin to another account
func (h *handler) NativeCoinTransfer(c *gin.Context) {
	var req nativeTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if req.ReceiveAddress == "" {
		respondBadRequest(c, "receiver is required!")
		return
	}
	if req.Amount <= 0 {
		respondBadRequest(c, "amount is required!")
		return
	}

	result, err := h.executor.TransferNative(c.Request.Context(), executor.NativeTransferInput{
		Network:    middleware.RequestNetwork(c),
		SigningKey: req.OwnerPrivateKey,
		ToAddress:  req.ReceiveAddress,
		Amount:     req.Amount,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{"txHash": result.TxHash})
}

// SetBaseURI repoints the multi-token contract's metadata base URI
func (h *handler) SetBaseURI(c *gin.Context) {
	var req setBaseURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	if req.OwnerPrivateKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}

	result, err := h.executor.SetBaseURI(c.Request.Context(), executor.SetBaseURIInput{
		Network:    middleware.RequestNetwork(c),
		SigningKey: req.OwnerPrivateKey,
		BaseURI:    req.BaseURI,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{"txHash": result.TxHash})
}

// Burn destroys an ERC721 token
func (h *handler) Burn(c *gin.Context) {
	var req burnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	h.burn(c, domain.StandardERC721, req.OwnerPrivateKey, req.TokenID, 0)
}

// BurnERC1155 destroys a multi-token amount
func (h *handler) BurnERC1155(c *gin.Context) {
	var req burn1155Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}
	h.burn(c, domain.StandardERC1155, req.OwnerPrivateKey, req.TokenID, req.Amount)
}

func (h *handler) burn(c *gin.Context, standard domain.Standard, signingKey string, tokenID *int64, amount int64) {
	if signingKey == "" {
		respondBadRequest(c, "fromPrivate is required!")
		return
	}
	if tokenID == nil {
		respondBadRequest(c, "tokenId is required!")
		return
	}

	result, err := h.executor.Burn(c.Request.Context(), executor.BurnInput{
		Network:    middleware.RequestNetwork(c),
		Standard:   standard,
		SigningKey: signingKey,
		TokenID:    *tokenID,
		Amount:     amount,
	})
	if err != nil {
		respondOperationError(c, err, result)
		return
	}

	respondOK(c, gin.H{
		"txHash":  result.TxHash,
		"tokenId": result.TokenID,
	})
}

// ListNFTByOwner retrieves tracked assets held by an owner
func (h *handler) ListNFTByOwner(c *gin.Context) {
	owner := c.Query("ownerAddress")
	if owner == "" {
		respondBadRequest(c, "Bad request")
		return
	}
	limit, offset := pagination(c, "pageIndex", "pageSize")

	assets, total, err := h.store.ListAssetsByOwner(c.Request.Context(), owner, limit, offset)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"data": gin.H{
			"records":     toAssetRecords(assets),
			"totalRecord": total,
		},
	})
}

// GetNFTInfo retrieves the record behind a transaction hash, combining
// the history row with its asset
func (h *handler) GetNFTInfo(c *gin.Context) {
	txHash := c.Query("txHash")
	if txHash == "" {
		respondBadRequest(c, "Bad request")
		return
	}

	txn, err := h.store.GetTransactionByTxHash(c.Request.Context(), txHash)
	if err != nil {
		respondInternal(c, err)
		return
	}
	if txn == nil {
		respondFailure(c, codeNotFound, "NFT record is not found", nil)
		return
	}

	data := gin.H{
		"id":         txn.ID,
		"txhash":     txn.TxHash,
		"from":       txn.FromAddress,
		"to":         txn.ToAddress,
		"trans_type": string(txn.Kind),
	}
	if txn.AssetID != nil {
		asset, err := h.store.GetAssetByID(c.Request.Context(), *txn.AssetID)
		if err != nil {
			respondInternal(c, err)
			return
		}
		if asset != nil {
			data["token_id"] = asset.TokenID
			data["owner_address"] = asset.OwnerAddress
			data["token_metadata"] = asset.TokenMetadata
			data["thumbnail"] = asset.Thumbnail
			data["network"] = string(asset.Network)
			data["metadata_attr"] = json.RawMessage(asset.MetadataAttr)
			data["is_burn"] = asset.IsBurn
			data["mintDate"] = asset.CreatedAt
		}
	}

	respondOK(c, gin.H{"data": data})
}

// EstimateMintGas predicts mint cost without submitting
func (h *handler) EstimateMintGas(c *gin.Context) {
	owner := c.Query("ownerAddress")
	if owner == "" {
		respondBadRequest(c, "Bad request")
		return
	}

	estimate, err := h.executor.EstimateMintCost(c.Request.Context(), middleware.RequestNetwork(c), owner)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			respondBadRequest(c, "Address is invalid")
			return
		}
		respondInternal(c, err)
		return
	}

	message := "Enough balance for estimate gas"
	if !estimate.IsEnoughBalance {
		message = "Insufficient balance"
	}
	respondOK(c, gin.H{
		"isEnoughBalance": estimate.IsEnoughBalance,
		"message":         message,
		"gasLimit":        estimate.GasLimit,
		"gasPrice":        estimate.GasPrice,
		"gasInEth":        estimate.CostInNative,
	})
}

// pagination turns 1-based page query params into limit and offset.
// Defaults: page 1, 10 records.
func pagination(c *gin.Context, indexKey, sizeKey string) (int, int) {
	index, err := strconv.Atoi(c.Query(indexKey))
	if err != nil || index < 1 {
		index = 1
	}
	size, err := strconv.Atoi(c.Query(sizeKey))
	if err != nil || size < 1 {
		size = 10
	}
	return size, (index - 1) * size
}
