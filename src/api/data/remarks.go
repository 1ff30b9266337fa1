package data

import (
	"context"
	"log"
	"strings"

	"github.com/itering/substrate-api-rpc/client"
	"github.com/itering/substrate-api-rpc/expand"
	"github.com/redis/go-redis/v9"
)

// StartRemarkWatcher follows new blocks and confirms air-gapped login
// challenges. A challenge only confirms when a system.remark carrying the
// exact issued nonce is signed by the address the challenge was issued to;
// ConfirmNonce checks both, keyed by the signer's public key.
func StartRemarkWatcher(ctx context.Context, rpcURL string, rdb *redis.Client) {
	api, err := client.ConnectSub(rpcURL)
	if err != nil {
		log.Printf("remark watcher connect: %v", err)
		return
	}

	sub, err := api.RPC.Chain.SubscribeNewHeads()
	if err != nil {
		log.Printf("remark watcher head sub: %v", err)
		return
	}

	go func() {
		for {
			select {
			case head := <-sub.Chan():
				block, err := api.RPC.Chain.GetBlock(head.Hash())
				if err != nil {
					continue
				}

				for _, ext := range block.Block.Extrinsics {
					remarkBytes, err := expand.DecodeRemark(ext.Method.Args)
					if err != nil || len(remarkBytes) == 0 {
						continue
					}
					nonce := strings.TrimSpace(string(remarkBytes))
					signer := ext.Signature.Signer.AsID.ToHexString()
					if err := ConfirmNonce(ctx, rdb, signer, nonce); err != nil && err != redis.Nil {
						log.Printf("confirm remark nonce for %s: %v", signer, err)
					}
				}

			case <-ctx.Done():
				sub.Unsubscribe()
				return
			}
		}
	}()
}
