package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// VerifyGameToken trades a game-platform login token for a gateway token
// POST /api/game-nft-collection/verify-gesoten-login-token?token=<t>
func (h *handler) VerifyGameToken(c *gin.Context) {
	token, err := h.authService.ExchangeGameToken(c.Query("token"))
	if err != nil {
		respondBadRequest(c, "Token invalid")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"token":       token,
		"exprired_in": 7200,
	})
}

// ListGames retrieves a page of active games
// GET /api/game-nft-collection/nft-games?page_index=<i>&page_size=<s>
func (h *handler) ListGames(c *gin.Context) {
	limit, offset := pagination(c, "page_index", "page_size")

	games, total, err := h.store.ListGames(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"data": gin.H{
			"records":     toGameRecords(games),
			"totalRecord": total,
		},
	})
}

// GetGameByID retrieves one game
// GET /api/game-nft-collection/nft-game-by-id?id=<id>
func (h *handler) GetGameByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Bad request")
		return
	}

	game, err := h.store.GetGameByID(c.Request.Context(), id)
	if err != nil {
		respondInternal(c, err)
		return
	}
	if game == nil {
		respondFailure(c, codeNotFound, "NFT game is not found", nil)
		return
	}

	respondOK(c, gin.H{"records": toGameRecord(*game)})
}

// AssignPack draws one pack for the user from the game's remaining stock
// POST /api/game-nft-collection/assign-nft-pack-to-user
func (h *handler) AssignPack(c *gin.Context) {
	var req assignPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}

	game, err := h.store.GetGameByID(c.Request.Context(), req.GameID)
	if err != nil {
		respondInternal(c, err)
		return
	}
	if game == nil {
		respondBadRequest(c, "NFT game is not found")
		return
	}

	grant, err := h.engine.AssignPack(c.Request.Context(), req.GameID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligiblePack) || errors.Is(err, domain.ErrOutOfStock) {
			respondBadRequest(c, "NFT pack not found")
			return
		}
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"message": "Assign NFT pack to user successfully",
		"data": gin.H{
			"user_nft_pack_id": grant.ID,
			"nft_pack_id":      grant.PackID,
		},
	})
}

// OpenPack opens one of the user's unopened grants of a pack and draws
// one item from its drop table
// POST /api/game-nft-collection/open-nft-pack
func (h *handler) OpenPack(c *gin.Context) {
	var req openPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Bad request")
		return
	}

	grant, item, err := h.engine.OpenPack(c.Request.Context(), req.GameID, req.UserID, req.PackID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPackNotOwned):
			respondFailure(c, codeNotFound, "NFT pack does not exsits", nil)
		case errors.Is(err, domain.ErrNoEligibleItem):
			respondFailure(c, codeNotFound, "NFT item does not exsits", nil)
		default:
			respondInternal(c, err)
		}
		return
	}

	records := gin.H{
		"id":          grant.ID,
		"nft_item_id": grant.ItemID,
		"status":      grant.Status,
	}
	if item != nil {
		records["name"] = item.Name
		records["description"] = item.Description
		records["rarity"] = item.Rarity
		records["thumbnail_url"] = item.ThumbnailURL
		records["metadata_url"] = item.MetadataURL
	}
	respondOK(c, gin.H{
		"message": "Open NFT pack successfully",
		"data":    gin.H{"records": records},
	})
}

// ListUserPacks retrieves a page of a user's pack grants within a game
// GET /api/game-nft-collection/nft-packs?game_id=<g>&user_id=<u>&page_index=<i>&page_size=<s>
func (h *handler) ListUserPacks(c *gin.Context) {
	userID, gameID, ok := userGameQuery(c)
	if !ok {
		return
	}
	limit, offset := pagination(c, "page_index", "page_size")

	views, total, err := h.store.ListUserPacks(c.Request.Context(), userID, gameID, limit, offset)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"data": gin.H{
			"records":     toUserPackRecords(views),
			"totalRecord": total,
		},
	})
}

// ListUserItems retrieves a page of a user's item grants within a game
// GET /api/game-nft-collection/nft-by-user?game_id=<g>&user_id=<u>&page_index=<i>&page_size=<s>
func (h *handler) ListUserItems(c *gin.Context) {
	userID, gameID, ok := userGameQuery(c)
	if !ok {
		return
	}
	limit, offset := pagination(c, "page_index", "page_size")

	views, total, err := h.store.ListUserItems(c.Request.Context(), userID, gameID, limit, offset)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"data": gin.H{
			"records":     toUserItemRecords(views),
			"totalRecord": total,
		},
	})
}

// PickPackItem draws one item id from a pack's drop table without
// granting anything
// GET /api/game-nft-collection/nft-item-by-pack?pack_id=<p>
func (h *handler) PickPackItem(c *gin.Context) {
	packID, err := strconv.ParseInt(c.Query("pack_id"), 10, 64)
	if err != nil || packID <= 0 {
		respondBadRequest(c, "Bad request")
		return
	}

	itemID, err := h.engine.PickPackItem(c.Request.Context(), packID)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligibleItem) {
			respondFailure(c, codeNotFound, "NFT item does not exsits", nil)
			return
		}
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{"nft_item_id": itemID})
}

// GetItemByID retrieves one item definition
// GET /api/game-nft-collection/nft-item-by-id?nft_id=<id>
func (h *handler) GetItemByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("nft_id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Bad request")
		return
	}

	item, err := h.store.GetItemByID(c.Request.Context(), id)
	if err != nil {
		respondInternal(c, err)
		return
	}
	if item == nil {
		respondFailure(c, codeNotFound, "NFT item does not exsits", nil)
		return
	}

	respondOK(c, gin.H{"data": toItemRecord(*item)})
}

// ListCompounds retrieves a game's fusion recipes
// GET /api/game-nft-collection/nft-compound?game_id=<g>
func (h *handler) ListCompounds(c *gin.Context) {
	gameID, err := strconv.ParseInt(c.Query("game_id"), 10, 64)
	if err != nil || gameID <= 0 {
		respondBadRequest(c, "Bad request")
		return
	}

	groups, err := h.store.ListCompoundsByGame(c.Request.Context(), gameID)
	if err != nil {
		respondInternal(c, err)
		return
	}

	respondOK(c, gin.H{
		"data": gin.H{"records": toCompoundRecords(groups)},
	})
}

// userGameQuery parses the user_id and game_id query pair, responding on
// failure
func userGameQuery(c *gin.Context) (int64, int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondBadRequest(c, "Bad request")
		return 0, 0, false
	}
	gameID, err := strconv.ParseInt(c.Query("game_id"), 10, 64)
	if err != nil || gameID <= 0 {
		respondBadRequest(c, "Bad request")
		return 0, 0, false
	}
	return userID, gameID, true
}
