package chain

import (
	"encoding/hex"
	"testing"
)

func TestTwox128KnownVectors(t *testing.T) {
	// Well-known substrate storage prefix hashes.
	cases := []struct {
		in   string
		want string
	}{
		{"System", "26aa394eea5630e07c48ae0c9558cef7"},
		{"Account", "b99d880ec681799c0cf30e8886371da9"},
	}
	for _, tc := range cases {
		if got := hex.EncodeToString(Twox128([]byte(tc.in))); got != tc.want {
			t.Errorf("Twox128(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSystemAccountKeyLayout(t *testing.T) {
	accountID := make([]byte, 32)
	for i := range accountID {
		accountID[i] = byte(i)
	}

	key := SystemAccountKey(accountID)

	// twox128(System) + twox128(Account) + blake2_128(id) + id
	if len(key) != 16+16+16+32 {
		t.Fatalf("key length = %d, want 80", len(key))
	}
	prefix := hex.EncodeToString(key[:32])
	want := "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"
	if prefix != want {
		t.Errorf("prefix = %s, want %s", prefix, want)
	}
	if hex.EncodeToString(key[48:]) != hex.EncodeToString(accountID) {
		t.Error("key must end with the raw account id (blake2_128_concat)")
	}
}

func TestAccountID(t *testing.T) {
	// Alice's well-known development address.
	const alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	raw, err := AccountID(alice)
	if err != nil {
		t.Fatalf("decode ss58: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("account id length = %d, want 32", len(raw))
	}
	want := "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	if hex.EncodeToString(raw) != want {
		t.Errorf("account id = %x, want %s", raw, want)
	}

	hexAddr := "0x" + want
	raw2, err := AccountID(hexAddr)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}
	if hex.EncodeToString(raw2) != want {
		t.Errorf("hex account id = %x, want %s", raw2, want)
	}

	if _, err := AccountID("short"); err == nil {
		t.Error("short address should fail")
	}
}

func TestPoolIdleTeardown(t *testing.T) {
	p := NewPool("ws://invalid.example", 10)
	// Acquire against an unreachable endpoint fails; the pool must stay usable.
	if _, err := p.Acquire(); err == nil {
		t.Skip("unexpectedly connected")
	}
	p.Release()
	p.Close()
}
