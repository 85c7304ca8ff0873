package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintTruncates(t *testing.T) {
	full := Fingerprint([]byte("token"), 0)
	assert.Len(t, full, 64)
	assert.Equal(t, full[:16], Fingerprint([]byte("token"), 16))
	assert.NotEqual(t, full, Fingerprint([]byte("other"), 0))
}

func TestHashStructIgnoresMapOrder(t *testing.T) {
	a := map[string]any{"page": 1, "pageSize": 10, "searchQuery": "ali"}
	b := map[string]any{"searchQuery": "ali", "pageSize": 10, "page": 1}
	ha, err := HashStruct(a)
	require.NoError(t, err)
	hb, err := HashStruct(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	hc, err := HashStruct(map[string]any{"page": 2, "pageSize": 10, "searchQuery": "ali"})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
