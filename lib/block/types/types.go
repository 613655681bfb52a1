// Package types common blockchain types.
package types

import (
	"errors"
)

// Account contains a simplified view of an account's state as returned by the network.
type Account struct {
	Address    string `json:"address"`
	Lamports   uint64 `json:"lamports"`
	Sol        string `json:"sol"`
	Owner      string `json:"owner"`
	Executable bool   `json:"executable"`
	RentEpoch  string `json:"rentEpoch"`
	DataLen    int    `json:"dataLen"`
	Slot       uint64 `json:"slot"` // context slot of the response
}

// Signature contains the fields of a transaction signature involving an account.
type Signature struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime,omitempty"` // unix seconds, 0 when unknown
	Err       string `json:"err,omitempty"`
	Memo      string `json:"memo,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Network is a named cluster and the RPC endpoint it resolves to.
type Network struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// Error codes.
var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrBadAddress     = errors.New("invalid account address")
	ErrNoAccount      = errors.New("account not found")
	ErrBadCommitment  = errors.New("invalid commitment level")
)
