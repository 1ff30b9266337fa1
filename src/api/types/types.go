package types

import "time"

// Networks
type Network struct {
	ID              uint8  `gorm:"primaryKey"`
	Name            string `gorm:"size:32;unique;not null"` // polkadot|kusama
	Symbol          string `gorm:"size:8;not null"`
	Decimals        uint8  `gorm:"not null"`
	SS58Prefix      uint16 `gorm:"default:42"`
	TreasuryAddress string `gorm:"size:128"`
	SubsquidURL     string `gorm:"size:256"`
	SubscanURL      string `gorm:"size:256"`
	PriceFeedID     string `gorm:"size:64"` // asset id on the price feed, e.g. "polkadot"
}

// Network RPC endpoints
type NetworkRPC struct {
	ID        uint32 `gorm:"primaryKey"`
	NetworkID uint8  `gorm:"index;not null"`
	URL       string `gorm:"size:256;not null"`
	Location  string `gorm:"size:32;default:relayChain"` // relayChain|assetHub|hydration
	Active    bool   `gorm:"default:true"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

// Users
type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"size:64;unique;not null"`
	Bio          string `gorm:"type:text"`
	Badges       string `gorm:"type:text"` // JSON array of badge names
	ProfileScore int64  `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Addresses linked to users. A user may link several; each address belongs
// to at most one user.
type Address struct {
	Address   string `gorm:"primaryKey;size:128"`
	UserID    uint64 `gorm:"index;not null"`
	NetworkID uint8
	Verified  bool `gorm:"default:false"`
	IsDefault bool `gorm:"default:false"`
	CreatedAt time.Time
}

// Posts (off-chain discussion or mirror of an on-chain proposal)
type Post struct {
	ID           uint64 `gorm:"primaryKey"`
	NetworkID    uint8  `gorm:"index;not null"`
	ProposalType string `gorm:"size:32;index;not null"`
	OnChainID    uint64 `gorm:"index"` // referendum number for on-chain types
	UserID       uint64 `gorm:"index"`
	Title        string `gorm:"size:255"`
	Content      string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Poll types
const (
	PollTypeNormal = "normal"
	PollTypeOption = "option"
	PollTypeRemark = "remark"
)

// Off-chain poll vote decisions
const (
	VoteAye = "AYE"
	VoteNay = "NAY"
)

// Polls attached to posts. One poll per post per poll type.
type Poll struct {
	ID           string `gorm:"primaryKey;size:64"` // uuid
	NetworkID    uint8  `gorm:"index;not null"`
	PostID       uint64 `gorm:"index;not null"`
	ProposalType string `gorm:"size:32;not null"`
	PollType     string `gorm:"size:16;not null"`
	UserID       uint64 `gorm:"not null"` // poll owner
	Question     string `gorm:"size:512"`
	Options      string `gorm:"type:text"` // JSON array, option polls only
	BlockEnd     uint64 `gorm:"default:0"`
	EndAt        *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Poll votes, one row per voter per poll. The (poll, user) unique index makes
// concurrent casts from different users independent inserts.
type PollVote struct {
	ID        uint64 `gorm:"primaryKey"`
	PollID    string `gorm:"size:64;uniqueIndex:idx_poll_user;not null"`
	UserID    uint64 `gorm:"uniqueIndex:idx_poll_user;not null"`
	Vote      string `gorm:"size:8"`  // AYE|NAY for normal/remark polls
	Option    string `gorm:"size:64"` // chosen option for option polls
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Journal of reputation changes. Deltas only; the running total lives on
// users.profile_score and is bumped with an atomic increment.
type ScoreEvent struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"index;not null"`
	Reason    string `gorm:"size:64;not null"`
	Delta     int64  `gorm:"not null"`
	CreatedAt time.Time
}
