package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/data"
	"github.com/polkassembly/polkassembly-go/src/api/types"
)

// Network validates the x-network header against the supported networks and
// stashes the resolved network on the request context. Every route requires
// it; network validity is the first check on any request.
func Network() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.GetHeader("x-network")
		if name == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing x-network header"})
			return
		}
		net, ok := data.GetNetwork(name)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid network"})
			return
		}
		c.Set("network", net)
		c.Next()
	}
}

// RequestNetwork returns the network resolved by the Network middleware.
func RequestNetwork(c *gin.Context) types.Network {
	v, _ := c.Get("network")
	net, _ := v.(types.Network)
	return net
}
