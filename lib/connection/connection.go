// Package connection holds the active network connection of the explorer.
//
// The holder keeps at most one connection. Navigating to another network replaces it: the previous client is closed
// and nothing from it is carried over.
package connection

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tarancss/solview/lib/block"
	"github.com/tarancss/solview/lib/metrics"
)

// Connection is a client bound to one network with one commitment level.
type Connection struct {
	Network    string
	Endpoint   string
	Commitment string
	Chain      block.Chain
}

// Dialer builds a client for the named network.
type Dialer interface {
	Dial(network, commitment string) (block.Chain, error)
}

// Holder is the single slot holding the active connection.
type Holder struct {
	d          Dialer
	commitment string // used by Ensure
	log        *zap.Logger

	mu  sync.Mutex
	cur *Connection
}

// NewHolder returns an empty holder. Connections are created on demand with the dialer. An empty commitment selects
// the client's default level.
func NewHolder(d Dialer, commitment string, log *zap.Logger) *Holder {
	if log == nil {
		log = zap.NewNop()
	}

	return &Holder{d: d, commitment: commitment, log: log}
}

// Connect builds a client for network and stores it, overwriting any previous connection.
func (h *Holder) Connect(network, commitment string) (*Connection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connect(network, commitment)
}

// Ensure returns the active connection if it is bound to network, otherwise it connects to network with the
// holder's commitment level.
func (h *Holder) Ensure(network string) (*Connection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cur != nil && h.cur.Network == network {
		return h.cur, nil
	}

	return h.connect(network, h.commitment)
}

func (h *Holder) connect(network, commitment string) (*Connection, error) {
	c, err := h.d.Dial(network, commitment)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", network, err)
	}

	prev := h.cur
	h.cur = &Connection{
		Network:    network,
		Endpoint:   c.Network().Endpoint,
		Commitment: c.Commitment(),
		Chain:      c,
	}

	if prev != nil {
		prev.Chain.Close()
	}

	metrics.ConnectionSwitched(network)
	h.log.Info("connected", zap.String("network", network), zap.String("endpoint", h.cur.Endpoint),
		zap.String("commitment", h.cur.Commitment))

	return h.cur, nil
}

// Current returns the active connection, nil if none.
func (h *Holder) Current() *Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.cur
}

// Close releases the active connection.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cur != nil {
		h.cur.Chain.Close()
		h.cur = nil
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c *Connection) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the connection carried by ctx, nil if none.
func FromContext(ctx context.Context) *Connection {
	c, _ := ctx.Value(ctxKey{}).(*Connection)

	return c
}
