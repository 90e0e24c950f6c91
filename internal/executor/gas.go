package executor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// weiPerNative converts wei amounts to native-unit decimal strings.
var weiPerNative = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// EstimateMintCost predicts what a mint from the given account would
// cost without submitting anything. A representative safeMint payload
// stands in for the real one; the node's gas estimate gets a 60% safety
// margin because mint gas varies with contract state between estimate
// and submission.
func (e *Executor) EstimateMintCost(ctx context.Context, network domain.Network, ownerAddress string) (*domain.GasEstimate, error) {
	client, err := e.networks.Resolve(network)
	if err != nil {
		return nil, err
	}
	if !client.ValidateAddress(ownerAddress) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, ownerAddress)
	}

	contract, err := e.contracts.Resolve(network, domain.StandardERC721)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(ownerAddress)
	data, err := contract.Pack("safeMint", from, "tokenMetaData")
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint calldata: %w", err)
	}

	gas, err := client.EstimateGas(ctx, from, contract.Address, data)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit := gas + gas*60/100

	gasPrice, err := client.GasPrice(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := client.Balance(ctx, ownerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)

	return &domain.GasEstimate{
		GasLimit:        gasLimit,
		GasPrice:        gasPrice.String(),
		CostInNative:    WeiToNative(cost),
		Balance:         WeiToNative(balance),
		IsEnoughBalance: balance.Cmp(cost) >= 0,
	}, nil
}

// NativeToWei converts a native-unit amount to wei, truncating below
// one wei.
func NativeToWei(amount float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(amount), weiPerNative).Int(nil)
	return wei
}

// WeiToNative formats a wei amount as a native-unit decimal string.
func WeiToNative(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	native := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerNative)
	return native.Text('f', -1)
}
