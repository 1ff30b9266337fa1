package webserver

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polkassembly/polkassembly-go/src/api/cache"
	"github.com/polkassembly/polkassembly-go/src/api/chain"
	"github.com/polkassembly/polkassembly-go/src/api/data"
	"github.com/polkassembly/polkassembly-go/src/api/fetch"
	"github.com/polkassembly/polkassembly-go/src/api/middleware"
	"github.com/polkassembly/polkassembly-go/src/api/treasury"
	"github.com/polkassembly/polkassembly-go/src/api/types"
	"github.com/shopspring/decimal"
)

type Treasury struct {
	fetcher *fetch.Client
	pools   map[uint8]*chain.Pool
	pages   *cache.PageCache
	feedURL string
}

func NewTreasury(fetcher *fetch.Client, pools map[uint8]*chain.Pool, pages *cache.PageCache, feedURL string) Treasury {
	return Treasury{fetcher: fetcher, pools: pools, pages: pages, feedURL: feedURL}
}

// Overview serves GET /api/v1/treasury/overview from the page cache when
// primed, rebuilding on a miss.
func (t Treasury) Overview(c *gin.Context) {
	net := middleware.RequestNetwork(c)

	key := cache.Key(net.Name, "treasuryOverview")
	if payload, ok := t.pages.Get(c, key); ok {
		c.Data(http.StatusOK, "application/json", []byte(payload))
		return
	}

	overview := t.Build(c.Request.Context(), net)
	if payload, err := json.Marshal(overview); err == nil {
		t.pages.Set(c, key, string(payload))
	}
	c.JSON(http.StatusOK, overview)
}

// Build assembles the treasury overview for a network. Location fetches run
// in parallel; a failed location shows as unavailable instead of failing the
// total.
func (t Treasury) Build(ctx context.Context, net types.Network) treasury.Overview {
	price, err := t.fetcher.PriceUSD(ctx, t.feedURL, net.PriceFeedID)
	if err != nil {
		log.Printf("treasury price for %s: %v", net.Name, err)
		price = decimal.Zero
	}
	weekAgo, err := t.fetcher.WeekAgoPriceUSD(ctx, t.feedURL, net.PriceFeedID)
	if err != nil {
		log.Printf("treasury week-ago price for %s: %v", net.Name, err)
		weekAgo = decimal.Zero
	}

	return treasury.Aggregate(ctx, t.sources(net), price, weekAgo)
}

func (t Treasury) sources(net types.Network) []treasury.Source {
	sources := []treasury.Source{
		{
			Location: treasury.LocationRelayChain,
			Fetch: func(ctx context.Context) ([]treasury.RawBalance, error) {
				return t.relayChainBalance(net)
			},
		},
	}

	if addr := data.GetSetting("assethub_treasury_" + net.Name); addr != "" && net.SubscanURL != "" {
		sources = append(sources, treasury.Source{
			Location: treasury.LocationAssetHub,
			Fetch: func(ctx context.Context) ([]treasury.RawBalance, error) {
				return t.assetHubBalances(ctx, net, addr)
			},
		})
	}

	hydraURL := data.GetSetting("hydration_subsquid_url_" + net.Name)
	hydraAcct := data.GetSetting("hydration_treasury_" + net.Name)
	if hydraURL != "" && hydraAcct != "" {
		sources = append(sources, treasury.Source{
			Location: treasury.LocationHydration,
			Fetch: func(ctx context.Context) ([]treasury.RawBalance, error) {
				amount, err := t.fetcher.TreasuryBalance(ctx, hydraURL, hydraAcct)
				if err != nil {
					return nil, err
				}
				return []treasury.RawBalance{{Asset: treasury.AssetNative, Amount: amount, Decimals: net.Decimals}}, nil
			},
		})
	}

	return sources
}

func (t Treasury) relayChainBalance(net types.Network) ([]treasury.RawBalance, error) {
	pool, ok := t.pools[net.ID]
	if !ok {
		return nil, fetch.ErrNotFound
	}
	conn, err := pool.Acquire()
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	accountID, err := chain.AccountID(net.TreasuryAddress)
	if err != nil {
		return nil, err
	}
	amount, err := conn.FreeBalance(accountID)
	if err != nil {
		return nil, err
	}
	return []treasury.RawBalance{{Asset: treasury.AssetNative, Amount: amount, Decimals: net.Decimals}}, nil
}

func (t Treasury) assetHubBalances(ctx context.Context, net types.Network, addr string) ([]treasury.RawBalance, error) {
	tokens, err := t.fetcher.AccountTokens(ctx, net.SubscanURL, addr)
	if err != nil {
		return nil, err
	}

	var out []treasury.RawBalance
	for _, tok := range tokens {
		switch tok.Symbol {
		case net.Symbol:
			out = append(out, treasury.RawBalance{Asset: treasury.AssetNative, Amount: tok.Amount, Decimals: tok.Decimals})
		case "USDC":
			out = append(out, treasury.RawBalance{Asset: treasury.AssetUSDC, Amount: tok.Amount, Decimals: tok.Decimals})
		case "USDT":
			out = append(out, treasury.RawBalance{Asset: treasury.AssetUSDT, Amount: tok.Amount, Decimals: tok.Decimals})
		}
	}
	return out, nil
}

// StartRefresher rebuilds every network's treasury overview on an interval
// and primes the page cache, so requests rarely pay for the upstream fan-out.
func (t Treasury) StartRefresher(ctx context.Context, networks []types.Network, interval time.Duration) {
	refresh := func() {
		for _, net := range networks {
			overview := t.Build(ctx, net)
			if payload, err := json.Marshal(overview); err == nil {
				t.pages.Set(ctx, cache.Key(net.Name, "treasuryOverview"), string(payload))
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
