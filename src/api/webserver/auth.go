package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/polkassembly/polkassembly-go/src/api/data"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/score"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Auth struct {
	db        *gorm.DB
	rdb       *redis.Client
	jwtSecret []byte
	scores    *score.Provider
}

func NewAuth(db *gorm.DB, rdb *redis.Client, secret []byte, scores *score.Provider) Auth {
	return Auth{db: db, rdb: rdb, jwtSecret: secret, scores: scores}
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required,min=32,max=128"`
		Method  string `json:"method"  binding:"required,oneof=walletconnect polkadotjs airgap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	log.Printf("auth challenge for %s from %s via %s", req.Address, c.ClientIP(), req.Method)

	var nonce string
	var err error
	switch req.Method {
	case "polkadotjs", "walletconnect":
		// Wallets expect raw hex data for signRaw
		nonce, err = randomHex32()
	default:
		// Air-gap remark stays human readable
		nonce = uuid.NewString()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create challenge"})
		return
	}

	if err := data.SetNonce(c, a.rdb, req.Address, nonce); err != nil {
		log.Printf("set nonce for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Method    string `json:"method"    binding:"required,oneof=walletconnect polkadotjs airgap"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid address format"})
		return
	}

	switch req.Method {
	case "airgap":
		// Confirmed by the remark watcher once the nonce lands on chain.
		confirmed, err := data.GetNonce(c, a.rdb, req.Address)
		if err != nil || confirmed != "CONFIRMED" {
			c.JSON(http.StatusForbidden, gin.H{"message": "remark not confirmed"})
			return
		}
		data.DelNonce(c, a.rdb, req.Address)

	default: // polkadotjs | walletconnect
		nonce, err := data.GetNonce(c, a.rdb, req.Address)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"message": "challenge expired or not found"})
			return
		}
		if err := verifySignature(req.Address, req.Signature, nonce); err != nil {
			log.Printf("signature verification failed for %s: %v", req.Address, err)
			c.JSON(http.StatusForbidden, gin.H{"message": "bad signature"})
			return
		}
		data.DelNonce(c, a.rdb, req.Address)
	}

	user, err := a.resolveUser(c, req.Address)
	if err != nil {
		log.Printf("resolve user for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	token, err := issueJWT(user.ID, req.Address, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// resolveUser finds the account the address belongs to, creating a fresh one
// on first login.
func (a Auth) resolveUser(c *gin.Context, addr string) (types.User, error) {
	net := middleware.RequestNetwork(c)

	var link types.Address
	if err := a.db.First(&link, "address = ?", addr).Error; err == nil {
		var user types.User
		if err := a.db.First(&user, link.UserID).Error; err != nil {
			return types.User{}, err
		}
		return user, nil
	}

	user := types.User{Username: defaultUsername(addr)}
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&types.Address{
			Address:   addr,
			UserID:    user.ID,
			NetworkID: net.ID,
			Verified:  true,
			IsDefault: true,
		}).Error
	})
	return user, err
}

func defaultUsername(addr string) string {
	if len(addr) > 10 {
		return fmt.Sprintf("%s...%s", addr[:6], addr[len(addr)-4:])
	}
	return addr
}

// LinkAddress attaches a freshly verified address to the calling account and
// fires the address-linked scoring event.
func (a Auth) LinkAddress(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !isValidAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid address format"})
		return
	}

	userID := middleware.CallerID(c)
	net := middleware.RequestNetwork(c)

	nonce, err := data.GetNonce(c, a.rdb, req.Address)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "challenge expired or not found"})
		return
	}
	if err := verifySignature(req.Address, req.Signature, nonce); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "bad signature"})
		return
	}
	data.DelNonce(c, a.rdb, req.Address)

	var existing types.Address
	if err := a.db.First(&existing, "address = ?", req.Address).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "address already linked"})
		return
	}

	link := types.Address{
		Address:   req.Address,
		UserID:    userID,
		NetworkID: net.ID,
		Verified:  true,
	}
	if err := a.db.Create(&link).Error; err != nil {
		log.Printf("link address %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to link address"})
		return
	}

	if err := a.scores.Apply(userID, score.ReasonAddressLinked); err != nil {
		log.Printf("score address_linked for %d: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address linked."})
}
