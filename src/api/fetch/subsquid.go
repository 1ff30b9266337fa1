package fetch

import "context"

// ConvictionVote is an on-chain vote as indexed by Subsquid. Read-only from
// this service's perspective.
type ConvictionVote struct {
	Voter          string           `json:"voter"`
	Decision       string           `json:"decision"` // yes|no|abstain
	Balance        string           `json:"balance"`  // smallest units, decimal string
	LockPeriod     uint8            `json:"lockPeriod"`
	Block          uint64           `json:"createdAtBlock"`
	DelegatedVotes []ConvictionVote `json:"delegatedVotes,omitempty"`
}

const convictionVotesQuery = `
query ($index: Int!, $decision: VoteDecision!) {
  convictionVotes(
    where: {proposalIndex_eq: $index, decision_eq: $decision, removedAtBlock_isNull: true}
    orderBy: createdAtBlock_DESC
  ) {
    voter
    decision
    lockPeriod
    createdAtBlock
    balance {
      ... on StandardVoteBalance { value }
      ... on SplitVoteBalance { aye nay abstain }
    }
    delegatedVotes(where: {removedAtBlock_isNull: true}) {
      voter
      lockPeriod
      createdAtBlock
      balance {
        ... on StandardVoteBalance { value }
      }
    }
  }
}`

type squidBalance struct {
	Value   string `json:"value"`
	Aye     string `json:"aye"`
	Nay     string `json:"nay"`
	Abstain string `json:"abstain"`
}

type squidVote struct {
	Voter          string       `json:"voter"`
	Decision       string       `json:"decision"`
	LockPeriod     uint8        `json:"lockPeriod"`
	CreatedAtBlock uint64       `json:"createdAtBlock"`
	Balance        squidBalance `json:"balance"`
	DelegatedVotes []squidVote  `json:"delegatedVotes"`
}

func (b squidBalance) amount(decision string) string {
	if b.Value != "" {
		return b.Value
	}
	// Split votes carry one amount per decision bucket.
	switch decision {
	case "yes":
		return b.Aye
	case "no":
		return b.Nay
	default:
		return b.Abstain
	}
}

func (v squidVote) toConvictionVote(decision string) ConvictionVote {
	if v.Decision != "" {
		decision = v.Decision
	}
	out := ConvictionVote{
		Voter:      v.Voter,
		Decision:   decision,
		Balance:    v.Balance.amount(decision),
		LockPeriod: v.LockPeriod,
		Block:      v.CreatedAtBlock,
	}
	for _, d := range v.DelegatedVotes {
		out.DelegatedVotes = append(out.DelegatedVotes, d.toConvictionVote(decision))
	}
	return out
}

// ConvictionVotes fetches indexed on-chain votes for one decision bucket of a
// proposal.
func (c *Client) ConvictionVotes(ctx context.Context, endpoint string, proposalIndex uint64, decision string) ([]ConvictionVote, error) {
	var data struct {
		ConvictionVotes []squidVote `json:"convictionVotes"`
	}
	vars := map[string]interface{}{
		"index":    proposalIndex,
		"decision": decision,
	}
	if err := c.GraphQL(ctx, endpoint, convictionVotesQuery, vars, &data); err != nil {
		return nil, err
	}

	votes := make([]ConvictionVote, 0, len(data.ConvictionVotes))
	for _, v := range data.ConvictionVotes {
		votes = append(votes, v.toConvictionVote(decision))
	}
	return votes, nil
}

// OnChainProposal is the subset of indexed proposal data needed to synthesize
// a post when no off-chain post exists.
type OnChainProposal struct {
	Index     uint64 `json:"index"`
	Proposer  string `json:"proposer"`
	Status    string `json:"status"`
	TrackID   uint16 `json:"trackNumber"`
	CreatedAt string `json:"createdAt"`
}

const proposalQuery = `
query ($index: Int!, $type: ProposalType!) {
  proposals(where: {index_eq: $index, type_eq: $type}, limit: 1) {
    index
    proposer
    status
    trackNumber
    createdAt
  }
}`

// OnChainProposal fetches a single indexed proposal, used as the fallback
// source when the off-chain post is missing.
func (c *Client) OnChainProposal(ctx context.Context, endpoint string, proposalType string, index uint64) (*OnChainProposal, error) {
	var data struct {
		Proposals []OnChainProposal `json:"proposals"`
	}
	vars := map[string]interface{}{
		"index": index,
		"type":  proposalType,
	}
	if err := c.GraphQL(ctx, endpoint, proposalQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Proposals) == 0 {
		return nil, ErrNotFound
	}
	return &data.Proposals[0], nil
}

// TreasuryBalance fetches the native balance held by an account according to
// the Subsquid indexer (used for the hydration treasury location).
func (c *Client) TreasuryBalance(ctx context.Context, endpoint, account string) (string, error) {
	const q = `
query ($account: String!) {
  accounts(where: {id_eq: $account}, limit: 1) {
    free
  }
}`
	var data struct {
		Accounts []struct {
			Free string `json:"free"`
		} `json:"accounts"`
	}
	if err := c.GraphQL(ctx, endpoint, q, map[string]interface{}{"account": account}, &data); err != nil {
		return "", err
	}
	if len(data.Accounts) == 0 {
		return "", ErrNotFound
	}
	return data.Accounts[0].Free, nil
}
