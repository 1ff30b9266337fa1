package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/cache"
	"github.com/polkassembly/polkassembly-go/src/api/chain"
	"github.com/polkassembly/polkassembly-go/src/api/config"
	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/score"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the shared components the handlers work against.
type Deps struct {
	DB      *gorm.DB
	RDB     *redis.Client
	Fetcher *fetch.Client
	Pools   map[uint8]*chain.Pool
	Pages   *cache.PageCache
	Scores  *score.Provider
}

func attachRoutes(r *gin.Engine, cfg config.Config, d Deps, treasuryH Treasury) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://polkadot.polkassembly.io", "https://kusama.polkassembly.io"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-network"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(d.DB, d.RDB, []byte(cfg.JWTSecret), d.Scores)
	pollsH := NewPolls(d.DB, d.Pages, d.Scores)
	votesH := NewVotes(d.Fetcher, d.Pages)
	postsH := NewPosts(d.DB, d.Fetcher)
	profileH := NewProfile(d.DB, d.Scores)

	authLimiter := NewRateLimiter(10, time.Minute)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Network())
	{
		auth := v1.Group("/auth")
		auth.Use(RateLimitMiddleware(authLimiter))
		{
			auth.POST("/challenge", authH.Challenge)
			auth.POST("/verify", authH.Verify)
		}

		v1.GET("/polls", pollsH.List)
		v1.GET("/votes/delegationVoteList", votesH.DelegationVoteList)
		v1.GET("/treasury/overview", treasuryH.Overview)
		v1.GET("/posts/:proposalType/:id", postsH.Get)
		v1.GET("/users/:id", profileH.Get)

		// Poll mutations validate proposal/poll types before the token so a
		// bad type always answers 400, authenticated or not.
		jwtMW := middleware.JWT([]byte(cfg.JWTSecret))
		typeGate := actionTypeGate()

		actions := v1.Group("/auth/actions")
		{
			actions.POST("/createPoll", typeGate, jwtMW, pollsH.Create)
			actions.POST("/addPollVote", typeGate, jwtMW, pollsH.AddVote)
			actions.POST("/deletePollVote", typeGate, jwtMW, pollsH.DeleteVote)
			actions.POST("/editPoll", typeGate, jwtMW, pollsH.Edit)
			actions.POST("/linkAddress", jwtMW, authH.LinkAddress)
			actions.POST("/editProfile", jwtMW, profileH.Edit)
		}
	}
}
