// Package treasury combines native and stable-asset balances held across the
// treasury's chain locations into one USD-denominated overview.
package treasury

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Treasury locations
const (
	LocationRelayChain = "relayChain"
	LocationAssetHub   = "assetHub"
	LocationHydration  = "hydration"
)

// Assets
const (
	AssetNative = "native"
	AssetUSDC   = "usdc"
	AssetUSDT   = "usdt"
)

// RawBalance is a smallest-unit balance as fetched from a chain or indexer.
type RawBalance struct {
	Asset    string
	Amount   string // decimal string, smallest units
	Decimals uint8
}

// Source fetches the raw balances held at one treasury location.
type Source struct {
	Location string
	Fetch    func(ctx context.Context) ([]RawBalance, error)
}

// AssetValue is one asset's display amount and USD value at a location.
type AssetValue struct {
	Asset   string          `json:"asset"`
	Amount  decimal.Decimal `json:"amount"`
	USD     decimal.Decimal `json:"usd"`
	Display string          `json:"display"`
}

// LocationBalance is the aggregated value of one treasury location. A failed
// fetch leaves Available false; the UI renders it as "N/A" and the location
// contributes nothing to the total.
type LocationBalance struct {
	Location  string          `json:"location"`
	Available bool            `json:"available"`
	Assets    []AssetValue    `json:"assets,omitempty"`
	USD       decimal.Decimal `json:"usd"`
	Display   string          `json:"display"`
}

// Overview is the combined treasury picture.
type Overview struct {
	Locations       []LocationBalance `json:"locations"`
	TotalUSD        decimal.Decimal   `json:"totalUsd"`
	TotalDisplay    string            `json:"totalDisplay"`
	PriceUSD        decimal.Decimal   `json:"priceUsd"`
	WeekAgoPriceUSD decimal.Decimal   `json:"weekAgoPriceUsd"`
	PriceChangePct  *decimal.Decimal  `json:"priceChangePct,omitempty"` // nil when not available
	RefreshedAt     time.Time         `json:"refreshedAt"`
}

// Aggregate fetches every location in parallel and sums USD values. Full
// precision is kept throughout; only the Display strings abbreviate.
func Aggregate(ctx context.Context, sources []Source, priceUSD, weekAgoPriceUSD decimal.Decimal) Overview {
	locations := make([]LocationBalance, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			raw, err := src.Fetch(ctx)
			if err != nil {
				log.Printf("treasury %s: %v", src.Location, err)
				locations[i] = LocationBalance{Location: src.Location, Available: false}
				return
			}
			locations[i] = valueLocation(src.Location, raw, priceUSD)
		}(i, src)
	}
	wg.Wait()

	total := decimal.Zero
	for _, loc := range locations {
		if loc.Available {
			total = total.Add(loc.USD)
		}
	}

	return Overview{
		Locations:       locations,
		TotalUSD:        total,
		TotalDisplay:    FormatUSD(total),
		PriceUSD:        priceUSD,
		WeekAgoPriceUSD: weekAgoPriceUSD,
		PriceChangePct:  percentChangePtr(priceUSD, weekAgoPriceUSD),
		RefreshedAt:     time.Now().UTC(),
	}
}

func valueLocation(location string, raw []RawBalance, priceUSD decimal.Decimal) LocationBalance {
	loc := LocationBalance{Location: location, Available: true, USD: decimal.Zero}
	for _, b := range raw {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			log.Printf("treasury %s: bad amount %q for %s", location, b.Amount, b.Asset)
			continue
		}
		display := amount.Shift(-int32(b.Decimals))

		usd := display
		if b.Asset == AssetNative {
			usd = display.Mul(priceUSD)
		}

		loc.Assets = append(loc.Assets, AssetValue{
			Asset:   b.Asset,
			Amount:  display,
			USD:     usd,
			Display: FormatUSD(usd),
		})
		loc.USD = loc.USD.Add(usd)
	}
	loc.Display = FormatUSD(loc.USD)
	return loc
}

// PercentChange returns (current - weekAgo) / weekAgo * 100. ok is false when
// weekAgo is zero, meaning the change is not available.
func PercentChange(current, weekAgo decimal.Decimal) (decimal.Decimal, bool) {
	if weekAgo.IsZero() {
		return decimal.Zero, false
	}
	return current.Sub(weekAgo).Div(weekAgo).Mul(decimal.NewFromInt(100)).Round(2), true
}

func percentChangePtr(current, weekAgo decimal.Decimal) *decimal.Decimal {
	change, ok := PercentChange(current, weekAgo)
	if !ok {
		return nil
	}
	return &change
}

var suffixes = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.NewFromInt(1_000_000_000), "B"},
	{decimal.NewFromInt(1_000_000), "M"},
	{decimal.NewFromInt(1_000), "K"},
}

// FormatUSD abbreviates large amounts with K/M/B suffixes for display. The
// underlying decimal keeps full precision; only this string is rounded.
func FormatUSD(d decimal.Decimal) string {
	abs := d.Abs()
	for _, s := range suffixes {
		if abs.GreaterThanOrEqual(s.threshold) {
			return d.DivRound(s.threshold, 2).String() + s.suffix
		}
	}
	return d.Round(2).String()
}
