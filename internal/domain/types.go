package domain

import (
	"fmt"
	"strings"
)

// Network identifies a supported blockchain network. The set is closed:
// network selection is always resolved through the registry built at
// startup, never by ad hoc string comparison.
type Network string

const (
	NetworkPolygon Network = "POLYGON"
	NetworkOasy    Network = "OASY"
	NetworkGoerli  Network = "GOERLI"
)

// Networks lists every supported network.
func Networks() []Network {
	return []Network{NetworkPolygon, NetworkOasy, NetworkGoerli}
}

// ParseNetwork resolves a client-supplied network id (the `network_id`
// header) case-insensitively. An unresolvable id is an error, never a
// silent default.
func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToUpper(strings.TrimSpace(s))) {
	case NetworkPolygon:
		return NetworkPolygon, nil
	case NetworkOasy:
		return NetworkOasy, nil
	case NetworkGoerli:
		return NetworkGoerli, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedNetwork, s)
	}
}

// NativeSymbol returns the network's native currency symbol.
func (n Network) NativeSymbol() string {
	switch n {
	case NetworkPolygon:
		return "MATIC"
	case NetworkOasy:
		return "OAS"
	case NetworkGoerli:
		return "ETH"
	default:
		return ""
	}
}

// Standard identifies the token contract standard.
type Standard string

const (
	StandardERC721  Standard = "ERC721"
	StandardERC1155 Standard = "ERC1155"
)

// OperationKind identifies the logical on-chain operation carried by a
// transaction record.
type OperationKind string

const (
	OperationMint           OperationKind = "mint"
	OperationTransfer       OperationKind = "transfer"
	OperationBurn           OperationKind = "burn"
	OperationMetadataUpdate OperationKind = "metadata_update"
)

// Attribute is one entry of an NFT metadata attribute list. Value may
// be a string or a number, per the OpenSea metadata convention.
type Attribute struct {
	TraitType   string `json:"trait_type"`
	DisplayType string `json:"display_type,omitempty"`
	Value       any    `json:"value"`
}

// OperationResult is the outcome of a completed executor operation.
// TxHash is populated whenever a hash was obtained, including on
// submission failures, so callers can reconcile manually.
type OperationResult struct {
	TxHash   string
	TokenID  int64
	TokenURI string
	// Thumbnail is the stored thumbnail reference, when content upload
	// was part of the operation.
	Thumbnail string
	// Pending is set when the transaction was submitted but its receipt
	// did not arrive within the configured window. The submission is
	// tracked for reconciliation; it must not be retried.
	Pending bool
}

// GasEstimate is the result of a mint cost estimation. It reflects the
// raw contract estimate plus the configured safety margin, priced at the
// floor-adjusted gas price.
type GasEstimate struct {
	GasLimit uint64
	// GasPrice is the floor-adjusted price in wei
	GasPrice string
	// CostInNative is gasLimit * gasPrice in the native unit
	CostInNative    string
	Balance         string
	IsEnoughBalance bool
}

// Wallet is a freshly generated account.
type Wallet struct {
	Address    string
	PrivateKey string
}
