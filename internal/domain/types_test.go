package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		input string
		want  Network
	}{
		{"POLYGON", NetworkPolygon},
		{"polygon", NetworkPolygon},
		{"Oasy", NetworkOasy},
		{"goerli", NetworkGoerli},
	}

	for _, tc := range tests {
		got, err := ParseNetwork(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseNetwork("mainnet")
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)

	_, err = ParseNetwork("")
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}

func TestNativeSymbol(t *testing.T) {
	assert.Equal(t, "MATIC", NetworkPolygon.NativeSymbol())
	assert.Equal(t, "OAS", NetworkOasy.NativeSymbol())
	assert.Equal(t, "ETH", NetworkGoerli.NativeSymbol())
}
