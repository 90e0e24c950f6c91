package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// Contract is one deployed contract resolved from the registry: its
// address and parsed interface descriptor.
type Contract struct {
	Network  domain.Network
	Standard domain.Standard
	Address  common.Address
	ABI      abi.ABI
}

// Pack encodes a call to the named contract method
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	return data, nil
}

// contractEntry is one row of the contracts descriptor file
type contractEntry struct {
	Network  string          `json:"network"`
	Standard string          `json:"standard"`
	Address  string          `json:"address"`
	ABI      json.RawMessage `json:"abi"`
}

// Contracts resolves a (network, token standard) pair to a deployed
// contract. Built once at startup from static configuration.
type Contracts struct {
	byKey map[string]*Contract
}

// LoadContracts loads the contract registry from a JSON descriptor file
func LoadContracts(filePath string) (*Contracts, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec,G304 // This should be a trusted file
	if err != nil {
		return nil, fmt.Errorf("failed to read contracts file: %w", err)
	}

	return ParseContracts(data)
}

// ParseContracts builds the contract registry from descriptor JSON
func ParseContracts(data []byte) (*Contracts, error) {
	var entries []contractEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse contracts JSON: %w", err)
	}

	reg := &Contracts{byKey: make(map[string]*Contract)}
	for _, entry := range entries {
		network, err := domain.ParseNetwork(entry.Network)
		if err != nil {
			return nil, fmt.Errorf("contract entry %q: %w", entry.Address, err)
		}

		standard := domain.Standard(strings.ToUpper(entry.Standard))
		if standard != domain.StandardERC721 && standard != domain.StandardERC1155 {
			return nil, fmt.Errorf("contract entry %q: unknown standard %q", entry.Address, entry.Standard)
		}

		if !common.IsHexAddress(entry.Address) {
			return nil, fmt.Errorf("contract entry %q: invalid address", entry.Address)
		}

		parsedABI, err := abi.JSON(strings.NewReader(string(entry.ABI)))
		if err != nil {
			return nil, fmt.Errorf("contract entry %q: failed to parse ABI: %w", entry.Address, err)
		}

		reg.byKey[contractKey(network, standard)] = &Contract{
			Network:  network,
			Standard: standard,
			Address:  common.HexToAddress(entry.Address),
			ABI:      parsedABI,
		}
	}

	return reg, nil
}

// Resolve returns the contract deployed for the pair, or
// ErrContractNotFound when the registry has no entry.
func (r *Contracts) Resolve(network domain.Network, standard domain.Standard) (*Contract, error) {
	contract, ok := r.byKey[contractKey(network, standard)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrContractNotFound, standard, network)
	}
	return contract, nil
}

func contractKey(network domain.Network, standard domain.Standard) string {
	return string(network) + ":" + string(standard)
}
