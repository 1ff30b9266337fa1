package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceUSD fetches the current spot price for an asset from the price feed.
// Prices are decoded as decimals, not floats.
func (c *Client) PriceUSD(ctx context.Context, feedURL, assetID string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", strings.TrimRight(feedURL, "/"), assetID)

	var resp map[string]map[string]json.Number
	if err := c.GetJSON(ctx, url, nil, &resp); err != nil {
		return decimal.Zero, err
	}

	price, ok := resp[assetID]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("price feed: no usd price for %s", assetID)
	}
	return decimal.NewFromString(price.String())
}

// WeekAgoPriceUSD fetches the spot price from seven days ago, used for the
// percent-change display on the treasury overview.
func (c *Client) WeekAgoPriceUSD(ctx context.Context, feedURL, assetID string) (decimal.Decimal, error) {
	date := time.Now().UTC().AddDate(0, 0, -7).Format("02-01-2006")
	url := fmt.Sprintf("%s/coins/%s/history?date=%s", strings.TrimRight(feedURL, "/"), assetID, date)

	var resp struct {
		MarketData struct {
			CurrentPrice map[string]json.Number `json:"current_price"`
		} `json:"market_data"`
	}
	if err := c.GetJSON(ctx, url, nil, &resp); err != nil {
		return decimal.Zero, err
	}

	price, ok := resp.MarketData.CurrentPrice["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("price feed: no historical usd price for %s", assetID)
	}
	return decimal.NewFromString(price.String())
}
