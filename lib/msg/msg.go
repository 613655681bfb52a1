// Package msg defines the interface for different message brokers.
//
// The explorer publishes an event for every account lookup so other services can follow what is being browsed.
package msg

import "time"

// LookupEvent defines the message published when an account is looked up.
type LookupEvent struct {
	Net      string    `json:"net"`
	Address  string    `json:"address"`
	Found    bool      `json:"found"`
	Lamports uint64    `json:"lamports"`
	TS       time.Time `json:"ts"`
}

type MsgBroker interface {
	Setup() error
	Close() error

	SendLookup(net string, e LookupEvent) error
}
