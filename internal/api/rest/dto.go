package rest

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/store"
	"github.com/gesoten/nft-game-gateway/internal/store/schema"
)

// Request field names are the deployed wire contract, misspellings
// included ("owerPrivateKey"). They must not be normalized.

// loginRequest carries the operator credentials
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mintRequest carries an ERC721 mint against an existing metadata URI
type mintRequest struct {
	OwnerPrivateKey string             `json:"owerPrivateKey"`
	ReceiveAddress  string             `json:"receiveAddress"`
	TokenMetaData   string             `json:"tokenMetaData"`
	Thumbnail       string             `json:"thumbnail"`
	ClientUserID    int64              `json:"clientUserId"`
	Attributes      []domain.Attribute `json:"attributes"`
}

// mint1155Request carries a multi-token mint with an explicit id
type mint1155Request struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	ReceiveAddress  string `json:"receiveAddress"`
	TokenID         int64  `json:"id"`
	Amount          int64  `json:"amount"`
	ClientUserID    int64  `json:"clientUserId"`
}

// transferRequest carries a token transfer
type transferRequest struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	ReceiveAddress  string `json:"receiveAddress"`
	TokenID         *int64 `json:"tokenId"`
	Amount          int64  `json:"amount"`
}

// nativeTransferRequest carries a native-coin send, amount in the
// network's native unit
type nativeTransferRequest struct {
	OwnerPrivateKey string  `json:"owerPrivateKey"`
	ReceiveAddress  string  `json:"receiveAddress"`
	Amount          float64 `json:"amount"`
}

// setBaseURIRequest carries a contract-level base URI replacement
type setBaseURIRequest struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	BaseURI         string `json:"baseUri"`
}

// burnRequest carries an ERC721 burn
type burnRequest struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	TokenID         *int64 `json:"tokenId"`
}

// burn1155Request carries a multi-token burn
type burn1155Request struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	TokenID         *int64 `json:"id"`
	Amount          int64  `json:"amount"`
}

// updateMetadataRequest carries a metadata URI replacement, addressed
// by ledger record id
type updateMetadataRequest struct {
	OwnerPrivateKey string `json:"owerPrivateKey"`
	NFTInfoID       string `json:"nftInfoId"`
	TokenMetaData   string `json:"tokenMetaData"`
	Thumbnail       string `json:"thumbnail"`
}

// assignPackRequest asks for one pack draw
type assignPackRequest struct {
	GameID int64 `json:"game_id" binding:"required"`
	UserID int64 `json:"user_id" binding:"required"`
}

// openPackRequest asks to open one granted pack
type openPackRequest struct {
	GameID int64 `json:"game_id" binding:"required"`
	UserID int64 `json:"user_id" binding:"required"`
	PackID int64 `json:"nft_pack_id" binding:"required"`
}

// parseAttributes decodes the attributes form field, a JSON array of
// trait_type/value pairs
func parseAttributes(raw string, into *[]domain.Attribute) error {
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		return errors.New("attributes must be a JSON array of trait_type/value pairs")
	}
	return nil
}

// assetRecord is the wire shape of one ledger row in listing responses
type assetRecord struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	OwnerAddress  string          `json:"owner_address"`
	TokenID       *int64          `json:"token_id"`
	TokenMetadata string          `json:"token_metadata"`
	Thumbnail     string          `json:"thumbnail"`
	Network       string          `json:"network"`
	MetadataAttr  json.RawMessage `json:"metadata_attr"`
	IsBurn        bool            `json:"is_burn"`
	MintDate      time.Time       `json:"mintDate"`
}

// toAssetRecord converts a stored asset into its wire shape
func toAssetRecord(asset schema.Asset) assetRecord {
	return assetRecord{
		ID:            asset.ID,
		UserID:        asset.UserID,
		OwnerAddress:  asset.OwnerAddress,
		TokenID:       asset.TokenID,
		TokenMetadata: asset.TokenMetadata,
		Thumbnail:     asset.Thumbnail,
		Network:       string(asset.Network),
		MetadataAttr:  json.RawMessage(asset.MetadataAttr),
		IsBurn:        asset.IsBurn,
		MintDate:      asset.CreatedAt,
	}
}

// toAssetRecords converts a slice of stored assets
func toAssetRecords(assets []schema.Asset) []assetRecord {
	out := make([]assetRecord, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetRecord(a))
	}
	return out
}

// gameRecord is the wire shape of one game
type gameRecord struct {
	ID          int64  `json:"id"`
	Fullname    string `json:"fullname"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	RefGameID   int64  `json:"ref_game_id"`
	RefURL      string `json:"ref_url"`
}

func toGameRecord(game schema.Game) gameRecord {
	return gameRecord{
		ID:          game.ID,
		Fullname:    game.Fullname,
		Description: game.Description,
		Thumbnail:   game.Thumbnail,
		RefGameID:   game.RefGameID,
		RefURL:      game.RefURL,
	}
}

func toGameRecords(games []schema.Game) []gameRecord {
	out := make([]gameRecord, 0, len(games))
	for _, g := range games {
		out = append(out, toGameRecord(g))
	}
	return out
}

// itemRecord is the wire shape of one item definition
type itemRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      int    `json:"rarity"`
	Thumbnail   string `json:"thumbnail"`
	MetadataURL string `json:"metadata_url"`
	Status      string `json:"status"`
}

func toItemRecord(item schema.Item) itemRecord {
	return itemRecord{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Rarity:      item.Rarity,
		Thumbnail:   item.ThumbnailURL,
		MetadataURL: item.MetadataURL,
		Status:      item.Status,
	}
}

func toItemRecords(items []schema.Item) []itemRecord {
	out := make([]itemRecord, 0, len(items))
	for _, it := range items {
		out = append(out, toItemRecord(it))
	}
	return out
}

// userPackRecord is the wire shape of one pack grant listing row
type userPackRecord struct {
	ID             string    `json:"id"`
	CreatedDate    time.Time `json:"created_date"`
	Status         string    `json:"status"`
	Fullname       string    `json:"fullname"`
	Description    string    `json:"description"`
	Thumbnail      string    `json:"thumbnail"`
	InclusionCount int       `json:"inclusion_count"`
}

func toUserPackRecords(views []store.UserPackView) []userPackRecord {
	out := make([]userPackRecord, 0, len(views))
	for _, v := range views {
		out = append(out, userPackRecord{
			ID:             v.ID,
			CreatedDate:    v.CreatedAt,
			Status:         v.Status,
			Fullname:       v.Fullname,
			Description:    v.Description,
			Thumbnail:      v.Thumbnail,
			InclusionCount: v.InclusionCount,
		})
	}
	return out
}

// userItemRecord is the wire shape of one item grant listing row
type userItemRecord struct {
	ID          string    `json:"id"`
	CreatedDate time.Time `json:"created_date"`
	Status      string    `json:"status"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rarity      int       `json:"rarity"`
	Thumbnail   string    `json:"thumbnail_url"`
	MetadataURL string    `json:"metadata_url"`
}

func toUserItemRecords(views []store.UserItemView) []userItemRecord {
	out := make([]userItemRecord, 0, len(views))
	for _, v := range views {
		out = append(out, userItemRecord{
			ID:          v.ID,
			CreatedDate: v.CreatedAt,
			Status:      v.Status,
			Name:        v.Name,
			Description: v.Description,
			Rarity:      v.Rarity,
			Thumbnail:   v.ThumbnailURL,
			MetadataURL: v.MetadataURL,
		})
	}
	return out
}

// compoundRecord is the wire shape of one fusion recipe group
type compoundRecord struct {
	Item      itemRecord   `json:"item"`
	BurnItems []itemRecord `json:"burn_items"`
}

func toCompoundRecords(groups []store.CompoundGroup) []compoundRecord {
	out := make([]compoundRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, compoundRecord{
			Item:      toItemRecord(g.Item),
			BurnItems: toItemRecords(g.BurnItems),
		})
	}
	return out
}
