// Package aggregation merges indexed conviction votes into per-decision
// tallies. Chain balances exceed float precision, so all balance arithmetic
// runs on big.Int / decimal, never on float64.
package aggregation

import (
	"context"
	"log"
	"math/big"
	"sort"
	"sync"

	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/shopspring/decimal"
)

const (
	DecisionYes     = "yes"
	DecisionNo      = "no"
	DecisionAbstain = "abstain"
)

// BucketFetcher loads the votes for one decision bucket.
type BucketFetcher func(ctx context.Context, decision string) ([]fetch.ConvictionVote, error)

// Bucket holds the votes of a single decision.
type Bucket struct {
	Count int                    `json:"count"`
	Votes []fetch.ConvictionVote `json:"votes"`
}

// Tally is the combined per-decision result.
type Tally struct {
	Yes     Bucket `json:"yes"`
	No      Bucket `json:"no"`
	Abstain Bucket `json:"abstain"`
}

// Aggregate fetches the three decision buckets in parallel. A failed bucket
// degrades to {count: 0, votes: []} instead of failing the whole tally.
func Aggregate(ctx context.Context, fetchBucket BucketFetcher, sortKey SortKey) Tally {
	decisions := []string{DecisionYes, DecisionNo, DecisionAbstain}
	buckets := make([]Bucket, len(decisions))

	var wg sync.WaitGroup
	for i, d := range decisions {
		wg.Add(1)
		go func(i int, decision string) {
			defer wg.Done()
			votes, err := fetchBucket(ctx, decision)
			if err != nil {
				log.Printf("vote bucket %s: %v", decision, err)
				buckets[i] = Bucket{Count: 0, Votes: []fetch.ConvictionVote{}}
				return
			}
			b := Bucket{Count: len(votes), Votes: votes}
			b.sortVotes(sortKey)
			buckets[i] = b
		}(i, d)
	}
	wg.Wait()

	return Tally{Yes: buckets[0], No: buckets[1], Abstain: buckets[2]}
}

// SortKey orders votes within a bucket.
type SortKey int

const (
	SortByBlock      SortKey = iota // most recent block first (default)
	SortByBalance                   // largest balance first
	SortByConviction                // highest lock period first, balance breaks ties
	SortByPower                     // largest voting power first
)

func (b *Bucket) sortVotes(key SortKey) {
	votes := b.Votes
	switch key {
	case SortByBalance:
		sort.SliceStable(votes, func(i, j int) bool {
			return parseBalance(votes[i].Balance).Cmp(parseBalance(votes[j].Balance)) > 0
		})
	case SortByConviction:
		sort.SliceStable(votes, func(i, j int) bool {
			if votes[i].LockPeriod != votes[j].LockPeriod {
				return votes[i].LockPeriod > votes[j].LockPeriod
			}
			return parseBalance(votes[i].Balance).Cmp(parseBalance(votes[j].Balance)) > 0
		})
	case SortByPower:
		sort.SliceStable(votes, func(i, j int) bool {
			return VotingPower(votes[i]).Cmp(VotingPower(votes[j])) > 0
		})
	default:
		sort.SliceStable(votes, func(i, j int) bool {
			return votes[i].Block > votes[j].Block
		})
	}
}

func parseBalance(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

// VotingPower is balance scaled by the conviction lock period. Lock period 0
// counts a tenth of the balance; period n counts n times. Delegations add
// their own power to the delegate.
func VotingPower(v fetch.ConvictionVote) *big.Int {
	power := parseBalance(v.Balance)
	if v.LockPeriod == 0 {
		power.Div(power, big.NewInt(10))
	} else {
		power.Mul(power, big.NewInt(int64(v.LockPeriod)))
	}
	for _, d := range v.DelegatedVotes {
		power.Add(power, VotingPower(d))
	}
	return power
}

// TotalBalance sums raw balances across the bucket, delegations included.
func (b Bucket) TotalBalance() *big.Int {
	total := new(big.Int)
	var add func(votes []fetch.ConvictionVote)
	add = func(votes []fetch.ConvictionVote) {
		for _, v := range votes {
			total.Add(total, parseBalance(v.Balance))
			add(v.DelegatedVotes)
		}
	}
	add(b.Votes)
	return total
}

// PercentShares computes each bucket's share of the total voted balance as a
// percentage with two decimal places. An empty tally yields all zeros.
func (t Tally) PercentShares() map[string]decimal.Decimal {
	yes := decimal.NewFromBigInt(t.Yes.TotalBalance(), 0)
	no := decimal.NewFromBigInt(t.No.TotalBalance(), 0)
	abstain := decimal.NewFromBigInt(t.Abstain.TotalBalance(), 0)

	total := yes.Add(no).Add(abstain)
	shares := map[string]decimal.Decimal{
		DecisionYes:     decimal.Zero,
		DecisionNo:      decimal.Zero,
		DecisionAbstain: decimal.Zero,
	}
	if total.IsZero() {
		return shares
	}

	hundred := decimal.NewFromInt(100)
	shares[DecisionYes] = yes.Mul(hundred).DivRound(total, 2)
	shares[DecisionNo] = no.Mul(hundred).DivRound(total, 2)
	shares[DecisionAbstain] = abstain.Mul(hundred).DivRound(total, 2)
	return shares
}
