package webserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/score"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/gorm"
)

type Profile struct {
	db        *gorm.DB
	scores    *score.Provider
	sanitizer *bluemonday.Policy
}

func NewProfile(db *gorm.DB, scores *score.Provider) Profile {
	return Profile{db: db, scores: scores, sanitizer: bluemonday.StrictPolicy()}
}

// Edit serves POST /api/v1/auth/actions/editProfile. A successful edit fires
// the profile-edit scoring event; the score moves by a delta, never an
// absolute write.
func (p Profile) Edit(c *gin.Context) {
	var req struct {
		Bio    string   `json:"bio" binding:"max=2000"`
		Badges []string `json:"badges" binding:"max=16"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID := middleware.CallerID(c)

	updates := map[string]interface{}{
		"bio": p.sanitizer.Sanitize(req.Bio),
	}
	if req.Badges != nil {
		raw, err := json.Marshal(req.Badges)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid badges"})
			return
		}
		updates["badges"] = string(raw)
	}

	res := p.db.Model(&types.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		log.Printf("edit profile %d: %v", userID, res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to edit profile"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}

	if err := p.scores.Apply(userID, score.ReasonProfileEdit); err != nil {
		log.Printf("score profile_edit for %d: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated."})
}

// Get serves GET /api/v1/users/:id.
func (p Profile) Get(c *gin.Context) {
	var user types.User
	if err := p.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}

	var badges []string
	if user.Badges != "" {
		_ = json.Unmarshal([]byte(user.Badges), &badges)
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"bio":           user.Bio,
		"badges":        badges,
		"profile_score": user.ProfileScore,
	})
}
