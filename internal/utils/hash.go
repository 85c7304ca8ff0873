package utils

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the hex encoded sha3-256 of data truncated to n
// characters; n <= 0 returns the full digest.
func Fingerprint(data []byte, n int) string {
	sum := sha3.Sum256(data)
	h := hex.EncodeToString(sum[:])
	if n > 0 && n < len(h) {
		return h[:n]
	}
	return h
}

// HashStruct returns a stable fingerprint of v. Map keys are sorted before
// hashing so that two structurally equal values hash identically.
func HashStruct(v any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return "", errors.WithStack(err)
	}
	return Fingerprint(buf.Bytes(), 0), nil
}
