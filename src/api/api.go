package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polkassembly/polkassembly-go/src/api/cache"
	"github.com/polkassembly/polkassembly-go/src/api/chain"
	"github.com/polkassembly/polkassembly-go/src/api/config"
	"github.com/polkassembly/polkassembly-go/src/api/data"
	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/polkassembly/polkassembly-go/src/api/score"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"github.com/polkassembly/polkassembly-go/src/api/webserver"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		log.Printf("load settings: %v", err)
	}
	if err := data.LoadNetworks(db); err != nil {
		log.Fatalf("load networks: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())

	var networks []types.Network
	if err := db.Find(&networks).Error; err != nil {
		log.Fatalf("list networks: %v", err)
	}

	// One relay-chain connection pool per network, idle connections torn down
	// after the configured timeout.
	pools := make(map[uint8]*chain.Pool, len(networks))
	idle := time.Duration(cfg.ChainIdleSecs) * time.Second
	for _, net := range networks {
		rpcs, err := data.ActiveRPCs(db, net.ID, "relayChain")
		if err != nil || len(rpcs) == 0 {
			log.Printf("no active relay chain RPC for %s", net.Name)
			continue
		}
		pools[net.ID] = chain.NewPool(rpcs[0].URL, idle)
	}

	// Remark watcher confirms air-gapped login challenges. First network with
	// an RPC gets watched.
	for _, net := range networks {
		rpcs, err := data.ActiveRPCs(db, net.ID, "relayChain")
		if err == nil && len(rpcs) > 0 {
			go data.StartRemarkWatcher(ctx, rpcs[0].URL, rdb)
			break
		}
	}

	fetcher := fetch.NewClient()
	pages := cache.New(rdb, cfg.CachingAllowed, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	scores := score.NewProvider(db, score.DefaultDeltas())

	deps := webserver.Deps{
		DB:      db,
		RDB:     rdb,
		Fetcher: fetcher,
		Pools:   pools,
		Pages:   pages,
		Scores:  scores,
	}

	router, treasuryH := webserver.New(cfg, deps)
	go treasuryH.StartRefresher(ctx, networks, time.Duration(cfg.TreasuryRefresh)*time.Second)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Polkassembly API listening on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	for _, pool := range pools {
		pool.Close()
	}
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
