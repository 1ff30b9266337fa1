package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSONNormalizesStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient().GetJSON(context.Background(), srv.URL, nil, &out)
	if err == nil {
		t.Fatal("non-2xx must surface as an error")
	}
}

func TestGetJSONDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	var out map[string]string
	if err := NewClient().GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out["hello"] != "world" {
		t.Errorf("out = %v", out)
	}
}

func TestGraphQLSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"bad query"}]}`))
	}))
	defer srv.Close()

	var out struct{}
	err := NewClient().GraphQL(context.Background(), srv.URL, "query {}", nil, &out)
	if err == nil || err.Error() != "graphql: bad query" {
		t.Errorf("err = %v, want graphql: bad query", err)
	}
}

func TestConvictionVotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"convictionVotes":[
			{"voter":"alice","decision":"yes","lockPeriod":3,"createdAtBlock":500,
			 "balance":{"value":"12000000000000"},
			 "delegatedVotes":[{"voter":"dave","lockPeriod":1,"createdAtBlock":400,"balance":{"value":"7000000000000"}}]},
			{"voter":"bob","decision":"yes","lockPeriod":0,"createdAtBlock":600,
			 "balance":{"aye":"3000000000000","nay":"0","abstain":"0"}}
		]}}`))
	}))
	defer srv.Close()

	votes, err := NewClient().ConvictionVotes(context.Background(), srv.URL, 42, "yes")
	if err != nil {
		t.Fatalf("conviction votes: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("votes = %d, want 2", len(votes))
	}
	if votes[0].Voter != "alice" || votes[0].Balance != "12000000000000" || votes[0].LockPeriod != 3 {
		t.Errorf("standard vote = %+v", votes[0])
	}
	if len(votes[0].DelegatedVotes) != 1 || votes[0].DelegatedVotes[0].Balance != "7000000000000" {
		t.Errorf("delegated votes = %+v", votes[0].DelegatedVotes)
	}
	// Split vote balance picks the bucket's amount.
	if votes[1].Balance != "3000000000000" {
		t.Errorf("split vote balance = %s, want aye amount", votes[1].Balance)
	}
}

func TestAccountTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scan/account/tokens" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"code":0,"message":"Success","data":{
			"native":[{"symbol":"DOT","balance":"1000000000000","decimals":10}],
			"assets":[{"symbol":"usdc","balance":"5000000","decimals":6}]
		}}`))
	}))
	defer srv.Close()

	tokens, err := NewClient().AccountTokens(context.Background(), srv.URL, "someaddr")
	if err != nil {
		t.Fatalf("account tokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2", len(tokens))
	}
	if tokens[0].Symbol != "DOT" || tokens[0].Amount != "1000000000000" {
		t.Errorf("native = %+v", tokens[0])
	}
	if tokens[1].Symbol != "USDC" || tokens[1].Decimals != 6 {
		t.Errorf("asset = %+v (symbols are normalized upper case)", tokens[1])
	}
}

func TestAccountTokensSubscanError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":10004,"message":"Record Not Found","data":null}`))
	}))
	defer srv.Close()

	if _, err := NewClient().AccountTokens(context.Background(), srv.URL, "someaddr"); err == nil {
		t.Fatal("non-zero subscan code must surface as an error")
	}
}

func TestPriceUSDKeepsDecimalPrecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"polkadot":{"usd":4.123456789}}`))
	}))
	defer srv.Close()

	price, err := NewClient().PriceUSD(context.Background(), srv.URL, "polkadot")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.String() != "4.123456789" {
		t.Errorf("price = %s, want 4.123456789", price)
	}
}
