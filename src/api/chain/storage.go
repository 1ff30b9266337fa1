package chain

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
)

// Twox128 implements the TwoX 128-bit hash used for pallet/item prefixes.
func Twox128(data []byte) []byte {
	hash1 := xxhash.NewS64(0)
	hash1.Write(data)
	hash2 := xxhash.NewS64(1)
	hash2.Write(data)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:], hash1.Sum64())
	binary.LittleEndian.PutUint64(out[8:], hash2.Sum64())
	return out
}

// Blake2_128 implements the Blake2b 128-bit hash.
func Blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

// SystemAccountKey builds the System.Account storage key for an account id
// (Blake2_128_Concat hasher).
func SystemAccountKey(accountID []byte) []byte {
	key := append(Twox128([]byte("System")), Twox128([]byte("Account"))...)
	key = append(key, Blake2_128(accountID)...)
	return append(key, accountID...)
}
