package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an upstream source has no record for the
// requested entity.
var ErrNotFound = errors.New("not found")

// AssetBalance is a normalized token balance from Subscan.
type AssetBalance struct {
	Symbol   string
	Amount   string // smallest units, decimal string
	Decimals uint8
}

type subscanTokensResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Native []subscanToken `json:"native"`
		Assets []subscanToken `json:"assets"`
	} `json:"data"`
}

type subscanToken struct {
	Symbol   string `json:"symbol"`
	Balance  string `json:"balance"`
	Decimals uint8  `json:"decimals"`
}

// AccountTokens fetches native and asset balances for an account from a
// Subscan instance (used for the asset hub treasury location).
func (c *Client) AccountTokens(ctx context.Context, baseURL, address string) ([]AssetBalance, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/scan/account/tokens"

	var resp subscanTokensResponse
	body := map[string]interface{}{"address": address}
	if err := c.PostJSON(ctx, url, body, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("subscan: %s", resp.Message)
	}

	tokens := append(resp.Data.Native, resp.Data.Assets...)
	out := make([]AssetBalance, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, AssetBalance{
			Symbol:   strings.ToUpper(t.Symbol),
			Amount:   t.Balance,
			Decimals: t.Decimals,
		})
	}
	return out, nil
}
