package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

const validContracts = `[
  {
    "network": "polygon",
    "standard": "erc721",
    "address": "0x2222222222222222222222222222222222222222",
    "abi": [
      {"type": "function", "name": "safeMint", "inputs": [{"name": "to", "type": "address"}, {"name": "uri", "type": "string"}], "outputs": []}
    ]
  }
]`

func TestParseContracts(t *testing.T) {
	contracts, err := ParseContracts([]byte(validContracts))
	require.NoError(t, err)

	// Network and standard are case-insensitive on the way in
	contract, err := contracts.Resolve(domain.NetworkPolygon, domain.StandardERC721)
	require.NoError(t, err)
	assert.Equal(t, domain.NetworkPolygon, contract.Network)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", contract.Address.Hex())
}

func TestParseContractsRejectsUnknownNetwork(t *testing.T) {
	_, err := ParseContracts([]byte(`[{"network": "SOLANA", "standard": "ERC721", "address": "0x2222222222222222222222222222222222222222", "abi": []}]`))
	assert.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
}

func TestParseContractsRejectsUnknownStandard(t *testing.T) {
	_, err := ParseContracts([]byte(`[{"network": "POLYGON", "standard": "ERC20", "address": "0x2222222222222222222222222222222222222222", "abi": []}]`))
	assert.Error(t, err)
}

func TestParseContractsRejectsBadAddress(t *testing.T) {
	_, err := ParseContracts([]byte(`[{"network": "POLYGON", "standard": "ERC721", "address": "nope", "abi": []}]`))
	assert.Error(t, err)
}

func TestResolveMissingContract(t *testing.T) {
	contracts, err := ParseContracts([]byte(validContracts))
	require.NoError(t, err)

	_, err = contracts.Resolve(domain.NetworkOasy, domain.StandardERC721)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)

	_, err = contracts.Resolve(domain.NetworkPolygon, domain.StandardERC1155)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestContractPack(t *testing.T) {
	contracts, err := ParseContracts([]byte(validContracts))
	require.NoError(t, err)

	contract, err := contracts.Resolve(domain.NetworkPolygon, domain.StandardERC721)
	require.NoError(t, err)

	data, err := contract.Pack("safeMint",
		contract.Address, "ipfs://metadata")
	require.NoError(t, err)
	// 4-byte selector plus ABI-encoded arguments
	assert.Greater(t, len(data), 4)

	_, err = contract.Pack("noSuchMethod")
	assert.Error(t, err)
}
