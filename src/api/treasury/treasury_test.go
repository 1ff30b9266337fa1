package treasury

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAggregateRelayOnly(t *testing.T) {
	// 1.0 token at 12 decimals with a $5 spot price.
	sources := []Source{{
		Location: LocationRelayChain,
		Fetch: func(ctx context.Context) ([]RawBalance, error) {
			return []RawBalance{{Asset: AssetNative, Amount: "1000000000000", Decimals: 12}}, nil
		},
	}}

	overview := Aggregate(context.Background(), sources, dec("5"), dec("4"))

	if !overview.TotalUSD.Equal(dec("5")) {
		t.Errorf("total = %s, want 5", overview.TotalUSD)
	}
	if len(overview.Locations) != 1 || !overview.Locations[0].Available {
		t.Fatalf("relay location should be available")
	}
	if overview.PriceChangePct == nil || !overview.PriceChangePct.Equal(dec("25")) {
		t.Errorf("price change = %v, want 25", overview.PriceChangePct)
	}
}

func TestAggregateFailedLocationIsUnavailableNotZero(t *testing.T) {
	sources := []Source{
		{
			Location: LocationRelayChain,
			Fetch: func(ctx context.Context) ([]RawBalance, error) {
				return []RawBalance{{Asset: AssetNative, Amount: "2000000000000", Decimals: 12}}, nil
			},
		},
		{
			Location: LocationAssetHub,
			Fetch: func(ctx context.Context) ([]RawBalance, error) {
				return nil, errors.New("subscan down")
			},
		},
	}

	overview := Aggregate(context.Background(), sources, dec("5"), decimal.Zero)

	if !overview.TotalUSD.Equal(dec("10")) {
		t.Errorf("total = %s, want 10 (failed location contributes nothing)", overview.TotalUSD)
	}
	var hub *LocationBalance
	for i := range overview.Locations {
		if overview.Locations[i].Location == LocationAssetHub {
			hub = &overview.Locations[i]
		}
	}
	if hub == nil || hub.Available {
		t.Fatalf("asset hub should be present and unavailable")
	}
	if overview.PriceChangePct != nil {
		t.Errorf("price change should be unavailable when week-ago price is zero")
	}
}

func TestAggregateStablesAreAlreadyUSD(t *testing.T) {
	sources := []Source{{
		Location: LocationAssetHub,
		Fetch: func(ctx context.Context) ([]RawBalance, error) {
			return []RawBalance{
				{Asset: AssetUSDC, Amount: "3000000", Decimals: 6}, // 3 USDC
				{Asset: AssetUSDT, Amount: "2000000", Decimals: 6}, // 2 USDT
				{Asset: AssetNative, Amount: "1000000000000", Decimals: 12},
			}, nil
		},
	}}

	overview := Aggregate(context.Background(), sources, dec("7"), decimal.Zero)

	// 3 + 2 + 1*7
	if !overview.TotalUSD.Equal(dec("12")) {
		t.Errorf("total = %s, want 12", overview.TotalUSD)
	}
}

func TestPercentChange(t *testing.T) {
	if _, ok := PercentChange(dec("5"), decimal.Zero); ok {
		t.Error("zero week-ago price must report not available")
	}
	change, ok := PercentChange(dec("4"), dec("5"))
	if !ok || !change.Equal(dec("-20")) {
		t.Errorf("change = %s ok=%v, want -20 true", change, ok)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"12.345", "12.35"},
		{"999.99", "999.99"},
		{"1500", "1.5K"},
		{"1234567", "1.23M"},
		{"9870000000", "9.87B"},
		{"-2500000", "-2.5M"},
	}
	for _, tc := range cases {
		if got := FormatUSD(dec(tc.in)); got != tc.want {
			t.Errorf("FormatUSD(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
