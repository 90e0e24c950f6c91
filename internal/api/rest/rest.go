package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/gesoten/nft-game-gateway/internal/api/middleware"
	"github.com/gesoten/nft-game-gateway/internal/auth"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authService *auth.Service) {
	api := router.Group("/api")

	// No auth
	api.GET("/health-check", handler.HealthCheck)
	api.POST("/login", handler.Login)
	api.POST("/game-nft-collection/verify-gesoten-login-token", handler.VerifyGameToken)

	// Everything else requires a bearer token
	authorized := api.Group("", middleware.RequireAuth(authService))
	{
		// Network-dependent endpoints resolve the network_id header
		chainOps := authorized.Group("", middleware.RequireNetwork())
		{
			chainOps.POST("/create-wallet", handler.CreateWallet)
			chainOps.GET("/validate-address", handler.ValidateAddress)
			chainOps.GET("/balance", handler.GetBalance)

			chainOps.POST("/mint-nft", handler.MintNFT)
			chainOps.POST("/mint-nft-with-file", handler.MintNFTWithFile)
			chainOps.POST("/update-token-metadata", handler.UpdateTokenMetadata)
			chainOps.POST("/transfer", handler.Transfer)
			chainOps.POST("/burn", handler.Burn)
			chainOps.POST("/native-coin-transfer", handler.NativeCoinTransfer)
			chainOps.GET("/estimate-gas-for-mint", handler.EstimateMintGas)

			erc1155 := chainOps.Group("/erc1155")
			{
				erc1155.POST("/mint-nft", handler.MintERC1155)
				erc1155.POST("/transfer", handler.TransferERC1155)
				erc1155.POST("/burn-nft", handler.BurnERC1155)
				erc1155.POST("/set-base-uri", handler.SetBaseURI)
			}
		}

		authorized.GET("/nft-by-owner-address", handler.ListNFTByOwner)
		authorized.GET("/nft-info", handler.GetNFTInfo)

		game := authorized.Group("/game-nft-collection")
		{
			game.GET("/nft-games", handler.ListGames)
			game.GET("/nft-game-by-id", handler.GetGameByID)
			game.POST("/assign-nft-pack-to-user", handler.AssignPack)
			game.POST("/open-nft-pack", handler.OpenPack)
			game.GET("/nft-packs", handler.ListUserPacks)
			game.GET("/nft-by-user", handler.ListUserItems)
			game.GET("/nft-item-by-pack", handler.PickPackItem)
			game.GET("/nft-item-by-id", handler.GetItemByID)
			game.GET("/nft-compound", handler.ListCompounds)
		}
	}
}
