package blockchain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawTestAddress = "0:8b0fb7cc97e577e010946bcd0a5a7d20d866b7a8826ebb65ae5f327edbb82b27"

func TestNormalizeDeterministic(t *testing.T) {
	codec := NewTonAddressCodec()

	first, err := codec.Normalize(rawTestAddress)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.False(t, strings.HasPrefix(first, "0:"), "canonical form must not be the raw form")

	second, err := codec.Normalize(rawTestAddress)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeIdempotentOnCanonicalForm(t *testing.T) {
	codec := NewTonAddressCodec()

	canonical, err := codec.Normalize(rawTestAddress)
	require.NoError(t, err)

	again, err := codec.Normalize(canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, again)
}

func TestNormalizeRejectsMalformedAddress(t *testing.T) {
	codec := NewTonAddressCodec()

	for _, raw := range []string{"", "not-an-address", "0:zzzz", "0:1234"} {
		_, err := codec.Normalize(raw)
		assert.Error(t, err, "expected error for %q", raw)
	}
}

func TestNormalizeBatchMatchesPerItem(t *testing.T) {
	codec := NewTonAddressCodec()

	raws := []string{
		rawTestAddress,
		"0:c9959a997e1d4e4383d8db37b86d2101ce78dcf1f1b3904d9888fe572ef0efd4",
	}

	batch, err := codec.NormalizeBatch(raws)
	require.NoError(t, err)
	require.Len(t, batch, len(raws))

	for i, raw := range raws {
		single, err := codec.Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestNormalizeBatchFailsOnMalformedItem(t *testing.T) {
	codec := NewTonAddressCodec()

	_, err := codec.NormalizeBatch([]string{rawTestAddress, "bogus"})
	assert.Error(t, err)
}
