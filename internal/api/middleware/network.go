package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// networkKey is the gin context key carrying the resolved network.
const networkKey = "request_network"

// RequireNetwork returns a gin middleware that resolves the network_id
// header and rejects requests naming an unsupported network
func RequireNetwork() gin.HandlerFunc {
	return func(c *gin.Context) {
		network, err := domain.ParseNetwork(c.GetHeader("network_id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":      false,
				"message":      "Network is not supported",
				"message_code": http.StatusBadRequest,
			})
			return
		}

		c.Set(networkKey, network)
		c.Next()
	}
}

// RequestNetwork returns the network resolved for the request. Only
// valid behind RequireNetwork.
func RequestNetwork(c *gin.Context) domain.Network {
	network, _ := c.MustGet(networkKey).(domain.Network)
	return network
}
