package registry

import (
	"fmt"

	"github.com/gesoten/nft-game-gateway/internal/chain"
	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// Networks maps the closed set of supported networks to their configured
// chain clients. Built once at startup; resolved by lookup.
type Networks struct {
	clients map[domain.Network]chain.Client
}

// NewNetworks creates a network registry from configured clients
func NewNetworks(clients ...chain.Client) *Networks {
	reg := &Networks{clients: make(map[domain.Network]chain.Client, len(clients))}
	for _, c := range clients {
		reg.clients[c.Network()] = c
	}
	return reg
}

// Resolve returns the chain client for the network, or
// ErrUnsupportedNetwork when none is configured.
func (r *Networks) Resolve(network domain.Network) (chain.Client, error) {
	client, ok := r.clients[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, network)
	}
	return client, nil
}

// Close closes every configured client
func (r *Networks) Close() {
	for _, c := range r.clients {
		c.Close()
	}
}
