package explorer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/solview/lib/block"
	"github.com/tarancss/solview/lib/block/solana/rpctest"
	"github.com/tarancss/solview/lib/block/types"
	"github.com/tarancss/solview/lib/config"
	"github.com/tarancss/solview/lib/msg"
	"github.com/tarancss/solview/lib/store/memory"
)

// fakeBroker keeps the published events.
type fakeBroker struct {
	mu     sync.Mutex
	events []msg.LookupEvent
	closed bool
}

func (b *fakeBroker) Setup() error { return nil }

func (b *fakeBroker) Close() error {
	b.closed = true

	return nil
}

func (b *fakeBroker) SendLookup(net string, e msg.LookupEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, e)

	return nil
}

type testEnv struct {
	devnet, testnet *rpctest.Server
	e               *Explorer
	srv             *httptest.Server
	mb              *fakeBroker
	addr            string // existing account on devnet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		devnet:  rpctest.NewServer(),
		testnet: rpctest.NewServer(),
		mb:      &fakeBroker{},
		addr:    sol.NewWallet().PublicKey().String(),
	}

	var sig sol.Signature
	sig[0] = 7

	env.devnet.Accounts[env.addr] = rpctest.Account{
		Lamports:  1_500_000_000,
		Owner:     sol.SystemProgramID.String(),
		RentEpoch: 18446744073709551615,
	}
	env.devnet.Signatures[env.addr] = []rpctest.Signature{{Signature: sig.String(), Slot: 990, BlockTime: 1700000000}}

	conf := config.Default()
	conf.Networks = []config.NetworkConfig{
		{Name: "devnet", Node: env.devnet.URL},
		{Name: "testnet", Node: env.testnet.URL},
	}
	conf.SignatureLimit = 5

	nets, err := block.NewRegistry(conf.Networks)
	require.NoError(t, err)

	env.e = New(conf, nets, memory.New(0), env.mb, nil)
	env.srv = httptest.NewServer(env.e.Router())

	t.Cleanup(func() {
		env.srv.Close()
		env.e.Stop()
		env.devnet.Close()
		env.testnet.Close()
	})

	return env
}

// get requests path without following redirects.
func (env *testEnv) get(t *testing.T, path string) (int, http.Header, string) {
	t.Helper()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(env.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, resp.Header, string(b)
}

func TestHome(t *testing.T) {
	env := newTestEnv(t)

	s, h, _ := env.get(t, "/")
	assert.Equal(t, http.StatusFound, s)
	assert.Equal(t, "/devnet", h.Get("Location"))
	assert.Nil(t, env.e.Connection().Current(), "no network route visited yet")
}

func TestNetworkSelectsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	s, _, body := env.get(t, "/devnet")
	require.Equal(t, http.StatusOK, s)
	assert.Contains(t, body, "Search account on devnet")
	assert.Contains(t, body, env.devnet.URL)

	c := env.e.Connection().Current()
	require.NotNil(t, c)
	assert.Equal(t, "devnet", c.Network)
	assert.Equal(t, env.devnet.URL, c.Endpoint)
	assert.Equal(t, "confirmed", c.Commitment)

	// switching network replaces the connection
	s, _, _ = env.get(t, "/testnet")
	require.Equal(t, http.StatusOK, s)

	c2 := env.e.Connection().Current()
	require.NotNil(t, c2)
	assert.NotSame(t, c, c2)
	assert.Equal(t, "testnet", c2.Network)
	assert.Equal(t, env.testnet.URL, c2.Endpoint)

	// staying on the network keeps it
	s, _, _ = env.get(t, "/testnet")
	require.Equal(t, http.StatusOK, s)
	assert.Same(t, c2, env.e.Connection().Current())
}

func TestSearchRedirects(t *testing.T) {
	env := newTestEnv(t)

	s, h, _ := env.get(t, "/devnet?address=+"+env.addr+"+")
	assert.Equal(t, http.StatusSeeOther, s)
	assert.Equal(t, "/devnet/account/"+env.addr, h.Get("Location"))
}

func TestAccountView(t *testing.T) {
	env := newTestEnv(t)

	s, _, body := env.get(t, "/devnet/account/"+env.addr)
	require.Equal(t, http.StatusOK, s, body)
	assert.Contains(t, body, env.addr)
	assert.Contains(t, body, "1.5 SOL")
	assert.Contains(t, body, "18446744073709551615")
	assert.Contains(t, body, "2023-11-14T22:13:20Z")

	// the address is passed unchanged to the lookup, on the network of the route only
	calls := env.devnet.CallsTo("getAccountInfo")
	require.Len(t, calls, 1)

	var got string
	require.NoError(t, json.Unmarshal(calls[0].Params[0], &got))
	assert.Equal(t, env.addr, got)
	assert.Empty(t, env.testnet.Calls())

	// the lookup is recorded and published
	s, _, body = env.get(t, "/devnet")
	require.Equal(t, http.StatusOK, s)
	assert.Contains(t, body, "Recently viewed")
	assert.Contains(t, body, env.addr)

	require.Len(t, env.mb.events, 1)
	assert.Equal(t, "devnet", env.mb.events[0].Net)
	assert.Equal(t, env.addr, env.mb.events[0].Address)
	assert.True(t, env.mb.events[0].Found)
}

func TestAccountViewErrors(t *testing.T) {
	env := newTestEnv(t)

	missing := sol.NewWallet().PublicKey().String()

	s, _, body := env.get(t, "/devnet/account/"+missing)
	assert.Equal(t, http.StatusNotFound, s)
	assert.Contains(t, body, types.ErrNoAccount.Error())
	require.Len(t, env.mb.events, 1)
	assert.False(t, env.mb.events[0].Found)

	s, _, _ = env.get(t, "/devnet/account/0xcba75F167B03e34B8a572c50273C082401b073Ed")
	assert.Equal(t, http.StatusBadRequest, s)
	assert.Len(t, env.mb.events, 1, "invalid addresses are not recorded")

	s, _, body = env.get(t, "/ropsten/account/"+env.addr)
	assert.Equal(t, http.StatusNotFound, s)
	assert.Contains(t, body, "unknown network")

	env.devnet.Fail = true
	s, _, _ = env.get(t, "/devnet/account/"+env.addr)
	assert.Equal(t, http.StatusBadGateway, s)

	s, _, _ = env.get(t, "/devnet/transactions")
	assert.Equal(t, http.StatusNotFound, s)

	resp, err := http.Post(env.srv.URL+"/devnet", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAPI(t *testing.T) {
	env := newTestEnv(t)

	decode := func(body string) Response {
		var res Response
		require.NoError(t, json.Unmarshal([]byte(body), &res), body)

		return res
	}

	s, _, body := env.get(t, "/api/networks")
	require.Equal(t, http.StatusOK, s)

	var nets []types.Network
	require.NoError(t, json.Unmarshal([]byte(decode(body).Body), &nets))
	require.Len(t, nets, 4)
	assert.Equal(t, types.Network{Name: "devnet", Endpoint: env.devnet.URL}, nets[0])
	assert.Equal(t, types.Network{Name: "testnet", Endpoint: env.testnet.URL}, nets[1])

	s, _, body = env.get(t, "/api/devnet/account/"+env.addr)
	require.Equal(t, http.StatusOK, s)

	res := decode(body)
	assert.Empty(t, res.Error)

	var d AccountDetail
	require.NoError(t, json.Unmarshal([]byte(res.Body), &d))
	assert.True(t, d.Found)
	assert.Equal(t, "devnet", d.Network)
	assert.Equal(t, env.addr, d.Account.Address)
	assert.Equal(t, uint64(1_500_000_000), d.Account.Lamports)
	require.Len(t, d.Signatures, 1)
	assert.Equal(t, uint64(990), d.Signatures[0].Slot)

	s, _, body = env.get(t, "/api/devnet/account/bad")
	assert.Equal(t, http.StatusBadRequest, s)
	assert.Contains(t, decode(body).Error, types.ErrBadAddress.Error())

	s, _, body = env.get(t, "/api/ropsten/account/"+env.addr)
	assert.Equal(t, http.StatusNotFound, s)
	assert.Contains(t, decode(body).Error, types.ErrUnknownNetwork.Error())

	missing := sol.NewWallet().PublicKey().String()
	s, _, body = env.get(t, "/api/testnet/account/"+missing)
	assert.Equal(t, http.StatusNotFound, s)

	res = decode(body)
	require.NoError(t, json.Unmarshal([]byte(res.Body), &d))
	assert.False(t, d.Found)
	assert.Equal(t, "testnet", env.e.Connection().Current().Network)
}

func TestStop(t *testing.T) {
	env := newTestEnv(t)

	s, _, _ := env.get(t, "/devnet")
	require.Equal(t, http.StatusOK, s)

	env.e.Stop()
	assert.Nil(t, env.e.Connection().Current())
	assert.True(t, env.mb.closed)

	env.e.Stop() // idempotent, Cleanup stops again
}
