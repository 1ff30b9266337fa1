package webserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/polkassembly/polkassembly-go/src/api/cache"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/score"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/gorm"
)

type Polls struct {
	db        *gorm.DB
	pages     *cache.PageCache
	scores    *score.Provider
	sanitizer *bluemonday.Policy
}

func NewPolls(db *gorm.DB, pages *cache.PageCache, scores *score.Provider) Polls {
	return Polls{db: db, pages: pages, scores: scores, sanitizer: bluemonday.StrictPolicy()}
}

type pollVoteView struct {
	UserID    uint64    `json:"user_id"`
	Vote      string    `json:"vote,omitempty"`
	Option    string    `json:"option,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type pollView struct {
	ID              string         `json:"id"`
	PostID          uint64         `json:"post_id"`
	PollType        string         `json:"poll_type"`
	Question        string         `json:"question,omitempty"`
	Options         []string       `json:"options,omitempty"`
	BlockEnd        uint64         `json:"block_end"`
	EndAt           *time.Time     `json:"end_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	PollVotes       []pollVoteView `json:"poll_votes,omitempty"`
	OptionPollVotes []pollVoteView `json:"option_poll_votes,omitempty"`
}

func (p Polls) viewOf(poll types.Poll) pollView {
	view := pollView{
		ID:        poll.ID,
		PostID:    poll.PostID,
		PollType:  poll.PollType,
		Question:  poll.Question,
		BlockEnd:  poll.BlockEnd,
		EndAt:     poll.EndAt,
		CreatedAt: poll.CreatedAt,
		UpdatedAt: poll.UpdatedAt,
	}
	if poll.Options != "" {
		_ = json.Unmarshal([]byte(poll.Options), &view.Options)
	}

	var votes []types.PollVote
	if err := p.db.Where("poll_id = ?", poll.ID).Order("created_at DESC").Find(&votes).Error; err != nil {
		log.Printf("load votes for poll %s: %v", poll.ID, err)
	}
	views := make([]pollVoteView, 0, len(votes))
	for _, v := range votes {
		views = append(views, pollVoteView{
			UserID:    v.UserID,
			Vote:      v.Vote,
			Option:    v.Option,
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		})
	}
	if poll.PollType == types.PollTypeOption {
		view.OptionPollVotes = views
	} else {
		view.PollVotes = views
	}
	return view
}

// List serves GET /api/v1/polls. Cached read-through when caching is on.
func (p Polls) List(c *gin.Context) {
	var q struct {
		PostID       *uint64 `form:"postId" binding:"required"`
		PollType     string  `form:"pollType" binding:"required"`
		ProposalType string  `form:"proposalType" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(q.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	if !isValidPollType(q.PollType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid poll type"})
		return
	}

	net := middleware.RequestNetwork(c)
	key := cache.Key(net.Name, "polls", itoa(*q.PostID), q.PollType, q.ProposalType)
	if payload, ok := p.pages.Get(c, key); ok {
		c.Data(http.StatusOK, "application/json", []byte(payload))
		return
	}

	var polls []types.Poll
	err := p.db.Where("network_id = ? AND post_id = ? AND proposal_type = ? AND poll_type = ?",
		net.ID, *q.PostID, q.ProposalType, q.PollType).Find(&polls).Error
	if err != nil {
		log.Printf("list polls: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch polls"})
		return
	}
	if len(polls) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no polls found"})
		return
	}

	views := make([]pollView, 0, len(polls))
	for _, poll := range polls {
		views = append(views, p.viewOf(poll))
	}
	body := gin.H{"polls": views}

	if payload, err := json.Marshal(body); err == nil {
		p.pages.Set(c, key, string(payload))
	}
	c.JSON(http.StatusOK, body)
}

// Create serves POST /api/v1/auth/actions/createPoll. One poll per post per
// poll type; blockEnd 0 is a legal end block.
func (p Polls) Create(c *gin.Context) {
	var req struct {
		PostID       *uint64    `json:"postId" binding:"required"`
		PollType     string     `json:"pollType" binding:"required"`
		ProposalType string     `json:"proposalType" binding:"required"`
		Question     string     `json:"question" binding:"max=512"`
		Options      []string   `json:"options" binding:"max=16"`
		BlockEnd     *uint64    `json:"blockEnd"`
		EndAt        *time.Time `json:"endAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(req.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	if !isValidPollType(req.PollType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid poll type"})
		return
	}
	if req.PollType == types.PollTypeOption && len(req.Options) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "option polls need at least two options"})
		return
	}

	userID := middleware.CallerID(c)
	net := middleware.RequestNetwork(c)

	var post types.Post
	if err := p.db.First(&post, "id = ? AND network_id = ? AND proposal_type = ?",
		*req.PostID, net.ID, req.ProposalType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
		return
	}

	var existing types.Poll
	if err := p.db.First(&existing, "network_id = ? AND post_id = ? AND poll_type = ? AND proposal_type = ?",
		net.ID, *req.PostID, req.PollType, req.ProposalType).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "poll already exists for this post"})
		return
	}

	var blockEnd uint64
	if req.BlockEnd != nil {
		blockEnd = *req.BlockEnd
	}
	var options string
	if len(req.Options) > 0 {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid options"})
			return
		}
		options = string(raw)
	}

	poll := types.Poll{
		ID:           uuid.NewString(),
		NetworkID:    net.ID,
		PostID:       *req.PostID,
		ProposalType: req.ProposalType,
		PollType:     req.PollType,
		UserID:       userID,
		Question:     p.sanitizer.Sanitize(req.Question),
		Options:      options,
		BlockEnd:     blockEnd,
		EndAt:        req.EndAt,
	}
	if err := p.db.Create(&poll).Error; err != nil {
		log.Printf("create poll: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create poll"})
		return
	}

	if err := p.scores.Apply(userID, score.ReasonPollCreated); err != nil {
		log.Printf("score poll_created for %d: %v", userID, err)
	}
	p.invalidate(c, net.Name, *req.PostID)

	c.JSON(http.StatusOK, gin.H{"message": "Poll created.", "id": poll.ID})
}

// AddVote serves POST /api/v1/auth/actions/addPollVote. One ballot per user
// per poll; re-voting goes through cancel then re-add.
func (p Polls) AddVote(c *gin.Context) {
	var req struct {
		PollID       string  `json:"pollId" binding:"required"`
		PostID       *uint64 `json:"postId" binding:"required"`
		UserID       *uint64 `json:"userId" binding:"required"`
		Vote         string  `json:"vote"`
		Option       string  `json:"option"`
		PollType     string  `json:"pollType" binding:"required"`
		ProposalType string  `json:"proposalType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(req.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	if !isValidPollType(req.PollType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid poll type"})
		return
	}

	if middleware.CallerID(c) != *req.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "token does not match user"})
		return
	}

	net := middleware.RequestNetwork(c)
	var poll types.Poll
	if err := p.db.First(&poll, "id = ? AND network_id = ? AND poll_type = ?",
		req.PollID, net.ID, req.PollType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "poll not found"})
		return
	}
	if poll.PostID != *req.PostID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "post does not match poll"})
		return
	}
	if poll.EndAt != nil && poll.EndAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "poll has ended"})
		return
	}

	vote := types.PollVote{PollID: poll.ID, UserID: *req.UserID}
	if poll.PollType == types.PollTypeOption {
		if !pollHasOption(poll, req.Option) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid option"})
			return
		}
		vote.Option = req.Option
	} else {
		if req.Vote != types.VoteAye && req.Vote != types.VoteNay {
			c.JSON(http.StatusBadRequest, gin.H{"message": "vote must be AYE or NAY"})
			return
		}
		vote.Vote = req.Vote
	}

	var existing types.PollVote
	if err := p.db.First(&existing, "poll_id = ? AND user_id = ?", poll.ID, *req.UserID).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "already voted"})
		return
	}

	if err := p.db.Create(&vote).Error; err != nil {
		// Concurrent casts from the same user race past the lookup above; the
		// (poll_id, user_id) unique index catches the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "already voted"})
			return
		}
		log.Printf("add poll vote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to add vote"})
		return
	}

	if err := p.scores.Apply(*req.UserID, score.ReasonPollVoted); err != nil {
		log.Printf("score poll_voted for %d: %v", *req.UserID, err)
	}
	p.invalidate(c, net.Name, poll.PostID)

	c.JSON(http.StatusOK, gin.H{"message": "Poll vote added."})
}

// DeleteVote serves POST /api/v1/auth/actions/deletePollVote. Removes every
// entry the caller has on the poll.
func (p Polls) DeleteVote(c *gin.Context) {
	var req struct {
		PollID       string  `json:"pollId" binding:"required"`
		UserID       *uint64 `json:"userId" binding:"required"`
		PollType     string  `json:"pollType" binding:"required"`
		ProposalType string  `json:"proposalType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(req.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	if !isValidPollType(req.PollType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid poll type"})
		return
	}

	if middleware.CallerID(c) != *req.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "token does not match user"})
		return
	}

	net := middleware.RequestNetwork(c)
	var poll types.Poll
	if err := p.db.First(&poll, "id = ? AND network_id = ? AND poll_type = ?",
		req.PollID, net.ID, req.PollType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "poll not found"})
		return
	}

	res := p.db.Where("poll_id = ? AND user_id = ?", poll.ID, *req.UserID).Delete(&types.PollVote{})
	if res.Error != nil {
		log.Printf("delete poll vote: %v", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete vote"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No vote found"})
		return
	}

	p.invalidate(c, net.Name, poll.PostID)
	c.JSON(http.StatusOK, gin.H{"message": "Poll vote deleted."})
}

// Edit serves POST /api/v1/auth/actions/editPoll. Only normal polls can move
// their end block, and only the owner may do it. blockEnd 0 is legal.
func (p Polls) Edit(c *gin.Context) {
	var req struct {
		PollID       string  `json:"pollId" binding:"required"`
		BlockEnd     *uint64 `json:"blockEnd" binding:"required"`
		PollType     string  `json:"pollType" binding:"required"`
		ProposalType string  `json:"proposalType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidProposalType(req.ProposalType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid proposal type"})
		return
	}
	if req.PollType != types.PollTypeNormal {
		c.JSON(http.StatusBadRequest, gin.H{"message": "only normal polls can be edited"})
		return
	}

	net := middleware.RequestNetwork(c)
	var poll types.Poll
	if err := p.db.First(&poll, "id = ? AND network_id = ? AND poll_type = ?",
		req.PollID, net.ID, req.PollType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "poll not found"})
		return
	}
	if poll.UserID != middleware.CallerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "only the poll owner can edit"})
		return
	}

	if err := p.db.Model(&poll).Update("block_end", *req.BlockEnd).Error; err != nil {
		log.Printf("edit poll: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to edit poll"})
		return
	}

	p.invalidate(c, net.Name, poll.PostID)
	c.JSON(http.StatusOK, gin.H{"message": "Poll edited."})
}

func pollHasOption(poll types.Poll, option string) bool {
	if option == "" || poll.Options == "" {
		return false
	}
	var options []string
	if err := json.Unmarshal([]byte(poll.Options), &options); err != nil {
		return false
	}
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}

func (p Polls) invalidate(c *gin.Context, network string, postID uint64) {
	p.pages.DeleteKeys(c, cache.Key(network, "polls", itoa(postID))+"*")
}
