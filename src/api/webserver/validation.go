package webserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/types"
)

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

var proposalTypes = map[string]bool{
	"discussions":            true,
	"grants":                 true,
	"referendums_v2":         true,
	"democracy_proposals":    true,
	"treasury_proposals":     true,
	"bounties":               true,
	"child_bounties":         true,
	"tips":                   true,
	"council_motions":        true,
	"fellowship_referendums": true,
}

// onChainProposalTypes maps API proposal types to the Subsquid enum used by
// the on-chain fallback.
var onChainProposalTypes = map[string]string{
	"referendums_v2":         "ReferendumV2",
	"democracy_proposals":    "DemocracyProposal",
	"treasury_proposals":     "TreasuryProposal",
	"bounties":               "Bounty",
	"child_bounties":         "ChildBounty",
	"tips":                   "Tip",
	"council_motions":        "CouncilMotion",
	"fellowship_referendums": "FellowshipReferendum",
}

func isValidProposalType(t string) bool {
	return proposalTypes[t]
}

func isValidPollType(t string) bool {
	switch t {
	case types.PollTypeNormal, types.PollTypeOption, types.PollTypeRemark:
		return true
	}
	return false
}

// actionTypeGate rejects poll mutations carrying an unknown proposal or poll
// type before the token is looked at. Type validity is decided ahead of auth,
// so an unauthenticated request with a bad type still gets the 400.
func actionTypeGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		var probe struct {
			PollType     string `json:"pollType"`
			ProposalType string `json:"proposalType"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if !isValidProposalType(probe.ProposalType) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
			return
		}
		if !isValidPollType(probe.PollType) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid poll type"})
			return
		}
		c.Next()
	}
}
