package webserver

import (
	"github.com/gin-gonic/gin"

	"github.com/polkassembly/polkassembly-go/src/api/config"
)

// New builds the engine and the treasury handler. The handler is returned so
// the caller can run its background refresher against the same instance the
// routes serve from.
func New(cfg config.Config, d Deps) (*gin.Engine, Treasury) {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	treasuryH := NewTreasury(d.Fetcher, d.Pools, d.Pages, cfg.PriceFeedURL)
	attachRoutes(g, cfg, d, treasuryH)
	return g, treasuryH
}
