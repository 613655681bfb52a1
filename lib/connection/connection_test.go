package connection

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/solview/lib/block"
	"github.com/tarancss/solview/lib/block/types"
	"github.com/tarancss/solview/lib/config"
)

// fakeChain records whether it was closed.
type fakeChain struct {
	net    types.Network
	cm     string
	closed bool
}

func (f *fakeChain) Network() types.Network { return f.net }
func (f *fakeChain) Commitment() string     { return f.cm }
func (f *fakeChain) Close()                 { f.closed = true }

func (f *fakeChain) Account(context.Context, string) (types.Account, error) {
	return types.Account{}, nil
}

func (f *fakeChain) Signatures(context.Context, string, int) ([]types.Signature, error) {
	return nil, nil
}

func (f *fakeChain) Slot(context.Context) (uint64, error) { return 0, nil }

type fakeDialer struct {
	mu    sync.Mutex
	dials []*fakeChain
}

func (d *fakeDialer) Dial(network, commitment string) (block.Chain, error) {
	ep, err := block.ClusterAPIURL(network)
	if err != nil {
		return nil, err
	}

	if commitment == "" {
		commitment = "confirmed"
	}

	c := &fakeChain{net: types.Network{Name: network, Endpoint: ep}, cm: commitment}

	d.mu.Lock()
	d.dials = append(d.dials, c)
	d.mu.Unlock()

	return c, nil
}

func TestConnectReplaces(t *testing.T) {
	d := &fakeDialer{}
	h := NewHolder(d, "", nil)

	assert.Nil(t, h.Current())

	c1, err := h.Connect("devnet", "")
	require.NoError(t, err)
	assert.Equal(t, "devnet", c1.Network)
	assert.Equal(t, "confirmed", c1.Commitment, "default commitment")
	assert.Same(t, c1, h.Current())

	c2, err := h.Connect("testnet", "finalized")
	require.NoError(t, err)
	assert.Equal(t, "testnet", c2.Network)
	assert.Equal(t, "finalized", c2.Commitment)
	assert.Same(t, c2, h.Current(), "the new connection replaces the previous one")
	assert.NotSame(t, c1, c2)
	assert.True(t, d.dials[0].closed, "the replaced client is closed")
	assert.False(t, d.dials[1].closed)

	// connecting again to the same network still builds a new client
	c3, err := h.Connect("testnet", "")
	require.NoError(t, err)
	assert.NotSame(t, c2, c3)
	assert.Equal(t, "confirmed", c3.Commitment, "nothing is merged from the previous connection")
	assert.Len(t, d.dials, 3)

	h.Close()
	assert.Nil(t, h.Current())
	assert.True(t, d.dials[2].closed)
}

func TestEnsure(t *testing.T) {
	d := &fakeDialer{}
	h := NewHolder(d, "processed", nil)

	c1, err := h.Ensure("devnet")
	require.NoError(t, err)
	assert.Equal(t, "processed", c1.Commitment)

	pub, err := block.ClusterAPIURL("devnet")
	require.NoError(t, err)
	assert.Equal(t, pub, c1.Endpoint, "endpoint matches the network")

	again, err := h.Ensure("devnet")
	require.NoError(t, err)
	assert.Same(t, c1, again, "same network reuses the connection")
	assert.Len(t, d.dials, 1)

	c2, err := h.Ensure("mainnet-beta")
	require.NoError(t, err)
	assert.Equal(t, "mainnet-beta", c2.Network)
	assert.Len(t, d.dials, 2)
	assert.True(t, d.dials[0].closed)
}

func TestConnectUnknownNetwork(t *testing.T) {
	d := &fakeDialer{}
	h := NewHolder(d, "", nil)

	c, err := h.Ensure("devnet")
	require.NoError(t, err)

	_, err = h.Ensure("ropsten")
	assert.ErrorIs(t, err, types.ErrUnknownNetwork)
	assert.Same(t, c, h.Current(), "a failed connect keeps the active connection")
	assert.False(t, d.dials[0].closed)
}

func TestHolderWithRegistry(t *testing.T) {
	r, err := block.NewRegistry([]config.NetworkConfig{{Name: "devnet", Node: "http://localhost:8899"}})
	require.NoError(t, err)

	h := NewHolder(r, "", nil)
	defer h.Close()

	c, err := h.Ensure("devnet")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", c.Endpoint)
	assert.Equal(t, "confirmed", c.Commitment)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	c := &Connection{Network: "devnet"}
	assert.Same(t, c, FromContext(NewContext(context.Background(), c)))
}
