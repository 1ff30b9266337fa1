package data

import (
	"context"
	"encoding/hex"
	"log"
	"time"

	"github.com/polkassembly/polkassembly-go/src/api/chain"
	"github.com/redis/go-redis/v9"
)

const noncePrefix = "nonce:"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// nonceKey normalizes the address to the raw public key, so the SS58 form a
// wallet sends and the hex form the chain reports resolve to the same entry.
func nonceKey(addr string) string {
	if id, err := chain.AccountID(addr); err == nil {
		return noncePrefix + hex.EncodeToString(id)
	}
	return noncePrefix + addr
}

func SetNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	return rdb.Set(ctx, nonceKey(addr), nonce, 5*time.Minute).Err()
}

func GetNonce(ctx context.Context, rdb *redis.Client, addr string) (string, error) {
	return rdb.Get(ctx, nonceKey(addr)).Result()
}

func DelNonce(ctx context.Context, rdb *redis.Client, addr string) {
	_ = rdb.Del(ctx, nonceKey(addr)).Err()
}

// ConfirmNonce flips an air-gapped challenge to confirmed, but only when the
// on-chain remark carries the exact nonce that was handed out for the signer.
func ConfirmNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	key := nonceKey(addr)
	stored, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if stored != nonce {
		return nil
	}
	return rdb.Set(ctx, key, "CONFIRMED", 5*time.Minute).Err()
}
