// Package score maintains the gamified profile score. Scores only ever move
// by deltas applied with a server-side atomic increment, so concurrent
// scoring events never clobber each other.
package score

import (
	"fmt"

	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/gorm"
)

// Scoring event reasons.
const (
	ReasonProfileEdit       = "profile_edit"
	ReasonAddressLinked     = "address_linked"
	ReasonPollCreated       = "poll_created"
	ReasonPollVoted         = "poll_voted"
	ReasonContentModerated  = "content_moderated"
	ReasonContentReinstated = "content_reinstated"
)

// Deltas maps event reasons to score changes. Immutable configuration; a
// Provider hands it out so callers never read the map ambiently.
type Deltas map[string]int64

// DefaultDeltas mirrors the product's scoring table.
func DefaultDeltas() Deltas {
	return Deltas{
		ReasonProfileEdit:       25,
		ReasonAddressLinked:     50,
		ReasonPollCreated:       10,
		ReasonPollVoted:         5,
		ReasonContentModerated:  -100,
		ReasonContentReinstated: 100,
	}
}

// Provider applies score deltas and journals them.
type Provider struct {
	db     *gorm.DB
	deltas Deltas
}

func NewProvider(db *gorm.DB, deltas Deltas) *Provider {
	if deltas == nil {
		deltas = DefaultDeltas()
	}
	return &Provider{db: db, deltas: deltas}
}

// Apply bumps the user's score for the given reason. The update is an atomic
// SQL increment, never a read-then-write of the absolute value.
func (p *Provider) Apply(userID uint64, reason string) error {
	delta, ok := p.deltas[reason]
	if !ok {
		return fmt.Errorf("unknown score reason %q", reason)
	}
	return p.ApplyDelta(userID, reason, delta)
}

// ApplyDelta bumps the score by an explicit amount.
func (p *Provider) ApplyDelta(userID uint64, reason string, delta int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&types.User{}).Where("id = ?", userID).
			UpdateColumn("profile_score", gorm.Expr("profile_score + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d not found", userID)
		}
		return tx.Create(&types.ScoreEvent{UserID: userID, Reason: reason, Delta: delta}).Error
	})
}
