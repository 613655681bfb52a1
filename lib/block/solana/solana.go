// Package solana implements the block.Chain interface for Solana clusters.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tarancss/solview/lib/block/types"
	"github.com/tarancss/solview/lib/metrics"
	"github.com/tarancss/solview/lib/util"
)

// DefaultCommitment is the confirmation level used when none is given.
const DefaultCommitment = rpc.CommitmentConfirmed

// Solana implements a connection to a Solana cluster.
type Solana struct {
	c   *rpc.Client
	net types.Network
	cm  rpc.CommitmentType
}

// ParseCommitment returns the commitment level for s. An empty string selects DefaultCommitment.
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch rpc.CommitmentType(strings.ToLower(s)) {
	case "":
		return DefaultCommitment, nil
	case rpc.CommitmentProcessed:
		return rpc.CommitmentProcessed, nil
	case rpc.CommitmentConfirmed:
		return rpc.CommitmentConfirmed, nil
	case rpc.CommitmentFinalized:
		return rpc.CommitmentFinalized, nil
	}

	return "", fmt.Errorf("%w: %q", types.ErrBadCommitment, s)
}

// Init returns a client of the network at endpoint that reads state at the given commitment level.
func Init(name, endpoint, commitment string) (*Solana, error) {
	cm, err := ParseCommitment(commitment)
	if err != nil {
		return nil, err
	}

	if endpoint == "" {
		return nil, fmt.Errorf("%w: %s has no endpoint", types.ErrUnknownNetwork, name)
	}

	return &Solana{
		c:   rpc.New(endpoint),
		net: types.Network{Name: name, Endpoint: endpoint},
		cm:  cm,
	}, nil
}

// Network returns the network the client is bound to.
func (s *Solana) Network() types.Network {
	return s.net
}

// Commitment returns the confirmation level of the lookups.
func (s *Solana) Commitment() string {
	return string(s.cm)
}

// Close ends a connection
func (s *Solana) Close() {
	_ = s.c.Close()
}

// Account returns the state of the account at address. The address is handed to the client library unchanged.
func (s *Solana) Account(ctx context.Context, address string) (a types.Account, err error) {
	pk, err := sol.PublicKeyFromBase58(address)
	if err != nil {
		return a, fmt.Errorf("%w %q: %s", types.ErrBadAddress, address, err.Error())
	}

	start := time.Now()
	res, err := s.c.GetAccountInfoWithOpts(ctx, pk, &rpc.GetAccountInfoOpts{
		Encoding:   sol.EncodingBase64,
		Commitment: s.cm,
	})
	metrics.ObserveRPC(s.net.Name, "getAccountInfo", start, err)

	if errors.Is(err, rpc.ErrNotFound) {
		return types.Account{Address: address}, fmt.Errorf("%w: %s", types.ErrNoAccount, address)
	}

	if err != nil {
		return a, fmt.Errorf("getAccountInfo %s: %w", address, err)
	}

	v := res.Value
	a = types.Account{
		Address:    address,
		Lamports:   v.Lamports,
		Sol:        util.FormatLamports(v.Lamports),
		Owner:      v.Owner.String(),
		Executable: v.Executable,
		RentEpoch:  fmt.Sprint(v.RentEpoch),
		Slot:       res.Context.Slot,
	}

	if v.Data != nil {
		a.DataLen = len(v.Data.GetBinary())
	}

	return a, nil
}

// Signatures returns up to limit of the most recent transaction signatures involving address.
func (s *Solana) Signatures(ctx context.Context, address string, limit int) ([]types.Signature, error) {
	pk, err := sol.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %s", types.ErrBadAddress, address, err.Error())
	}

	start := time.Now()
	res, err := s.c.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: s.cm,
	})
	metrics.ObserveRPC(s.net.Name, "getSignaturesForAddress", start, err)

	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress %s: %w", address, err)
	}

	sigs := make([]types.Signature, 0, len(res))

	for _, r := range res {
		sig := types.Signature{
			Signature: r.Signature.String(),
			Slot:      r.Slot,
			Status:    string(r.ConfirmationStatus),
		}

		if r.BlockTime != nil {
			sig.BlockTime = int64(*r.BlockTime)
		}

		if r.Err != nil {
			sig.Err = fmt.Sprint(r.Err)
		}

		if r.Memo != nil {
			sig.Memo = *r.Memo
		}

		sigs = append(sigs, sig)
	}

	return sigs, nil
}

// Slot returns the slot the network has reached at the client's commitment level.
func (s *Solana) Slot(ctx context.Context) (uint64, error) {
	start := time.Now()
	slot, err := s.c.GetSlot(ctx, s.cm)
	metrics.ObserveRPC(s.net.Name, "getSlot", start, err)

	if err != nil {
		return 0, fmt.Errorf("getSlot: %w", err)
	}

	return slot, nil
}
