// Package block defines the interface required for network connections and resolves network names to their RPC
// endpoints.
package block

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tarancss/solview/lib/block/solana"
	"github.com/tarancss/solview/lib/block/types"
	"github.com/tarancss/solview/lib/config"
)

// Chain is an interface that contains the read-only lookups the views need. All methods reach the network through
// the RPC client library, no state is kept besides the client itself.
type Chain interface {
	// member-type methods
	Network() types.Network
	Commitment() string
	// methods
	Close()
	Account(ctx context.Context, address string) (types.Account, error)
	Signatures(ctx context.Context, address string, limit int) ([]types.Signature, error)
	Slot(ctx context.Context) (uint64, error)
}

// Public clusters known without configuration.
var clusters = map[string]string{ //nolint:gochecknoglobals // read-only
	"devnet":       rpc.DevNet_RPC,
	"testnet":      rpc.TestNet_RPC,
	"mainnet-beta": rpc.MainNetBeta_RPC,
	"localnet":     rpc.LocalNet_RPC,
}

// ClusterAPIURL returns the public RPC endpoint of a built-in cluster.
func ClusterAPIURL(name string) (string, error) {
	if ep, ok := clusters[name]; ok {
		return ep, nil
	}

	return "", fmt.Errorf("%w: %s", types.ErrUnknownNetwork, name)
}

// Registry resolves network names to endpoints. Configured networks override or extend the built-in clusters.
type Registry struct {
	nets  map[string]string
	names []string // configured order first, then remaining built-ins sorted
}

// NewRegistry loads the networks read from the config. A configured network with an empty node keeps the public
// endpoint of the cluster of the same name.
func NewRegistry(nc []config.NetworkConfig) (*Registry, error) {
	r := &Registry{nets: make(map[string]string, len(clusters)+len(nc))}

	for _, n := range nc {
		node := n.Node
		if node == "" {
			var err error
			if node, err = ClusterAPIURL(n.Name); err != nil {
				return nil, fmt.Errorf("network %s has no node: %w", n.Name, err)
			}
		}

		if _, dup := r.nets[n.Name]; !dup {
			r.names = append(r.names, n.Name)
		}

		r.nets[n.Name] = node
	}

	rest := make([]string, 0, len(clusters))

	for name, ep := range clusters {
		if _, ok := r.nets[name]; !ok {
			r.nets[name] = ep
			rest = append(rest, name)
		}
	}

	sort.Strings(rest)
	r.names = append(r.names, rest...)

	return r, nil
}

// Endpoint returns the RPC endpoint of the network.
func (r *Registry) Endpoint(name string) (string, error) {
	if ep, ok := r.nets[name]; ok {
		return ep, nil
	}

	return "", fmt.Errorf("%w: %s", types.ErrUnknownNetwork, name)
}

// Networks returns all the networks available.
func (r *Registry) Networks() []types.Network {
	nets := make([]types.Network, 0, len(r.names))
	for _, name := range r.names {
		nets = append(nets, types.Network{Name: name, Endpoint: r.nets[name]})
	}

	return nets
}

// Dial returns a client bound to the network's endpoint with the given commitment level. The client does not
// contact the network until the first lookup.
func (r *Registry) Dial(name, commitment string) (Chain, error) {
	ep, err := r.Endpoint(name)
	if err != nil {
		return nil, err
	}

	c, err := solana.Init(name, ep, commitment)
	if err != nil {
		return nil, err
	}

	return c, nil
}
