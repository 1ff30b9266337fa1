package webserver

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/gorm"
)

type Posts struct {
	db      *gorm.DB
	fetcher *fetch.Client
}

func NewPosts(db *gorm.DB, fetcher *fetch.Client) Posts {
	return Posts{db: db, fetcher: fetcher}
}

// Get serves GET /api/v1/posts/:proposalType/:id. The off-chain post is the
// primary source; on a miss for on-chain proposal types the handler falls
// back to the indexer and synthesizes a post from chain data.
func (p Posts) Get(c *gin.Context) {
	proposalType := c.Param("proposalType")
	if !isValidProposalType(proposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}

	net := middleware.RequestNetwork(c)

	var post types.Post
	err = p.db.First(&post, "network_id = ? AND proposal_type = ? AND (id = ? OR on_chain_id = ?)",
		net.ID, proposalType, id, id).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"post": post})
		return
	}

	squidType, onChain := onChainProposalTypes[proposalType]
	if !onChain || net.SubsquidURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
		return
	}

	proposal, err := p.fetcher.OnChainProposal(c.Request.Context(), net.SubsquidURL, squidType, id)
	if err != nil {
		if err != fetch.ErrNotFound {
			log.Printf("on-chain fallback for %s/%d: %v", proposalType, id, err)
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": gin.H{
		"on_chain_id":   proposal.Index,
		"proposal_type": proposalType,
		"proposer":      proposal.Proposer,
		"status":        proposal.Status,
		"track_id":      proposal.TrackID,
		"created_at":    proposal.CreatedAt,
		"source":        "on-chain",
	}})
}
