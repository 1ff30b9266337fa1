package webserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/aggregation"
	"github.com/polkassembly/polkassembly-go/src/api/cache"
	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
)

type Votes struct {
	fetcher *fetch.Client
	pages   *cache.PageCache
}

func NewVotes(fetcher *fetch.Client, pages *cache.PageCache) Votes {
	return Votes{fetcher: fetcher, pages: pages}
}

var sortKeys = map[string]aggregation.SortKey{
	"":           aggregation.SortByBlock,
	"block":      aggregation.SortByBlock,
	"balance":    aggregation.SortByBalance,
	"conviction": aggregation.SortByConviction,
	"power":      aggregation.SortByPower,
}

// DelegationVoteList serves GET /api/v1/votes/delegationVoteList: the
// yes/no/abstain conviction-vote buckets for a proposal, delegations
// included. A failed bucket comes back empty, never a failed response.
func (v Votes) DelegationVoteList(c *gin.Context) {
	var q struct {
		ProposalIndex *uint64 `form:"postId" binding:"required"`
		ProposalType  string  `form:"proposalType" binding:"required"`
		SortBy        string  `form:"sortBy"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(q.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	sortKey, ok := sortKeys[q.SortBy]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid sortBy"})
		return
	}

	net := middleware.RequestNetwork(c)
	key := cache.Key(net.Name, "delegationVoteList", itoa(*q.ProposalIndex), q.SortBy)
	if payload, ok := v.pages.Get(c, key); ok {
		c.Data(http.StatusOK, "application/json", []byte(payload))
		return
	}

	fetchBucket := func(ctx context.Context, decision string) ([]fetch.ConvictionVote, error) {
		return v.fetcher.ConvictionVotes(ctx, net.SubsquidURL, *q.ProposalIndex, decision)
	}
	tally := aggregation.Aggregate(c.Request.Context(), fetchBucket, sortKey)

	body := gin.H{
		"yes":     tally.Yes,
		"no":      tally.No,
		"abstain": tally.Abstain,
		"shares":  tally.PercentShares(),
	}
	if payload, err := json.Marshal(body); err == nil {
		v.pages.Set(c, key, string(payload))
	}
	c.JSON(http.StatusOK, body)
}
