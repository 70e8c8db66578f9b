package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/cappu/internal/chain"
	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/wallet"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// nodeMock serves fixed JSON-RPC results per method and counts calls.
func nodeMock(t *testing.T, responses map[string]interface{}, calls *int32) *chain.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := responses[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	c, err := chain.Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func testSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	m := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := m.Import("default", testKey)
	require.NoError(t, err)
	s, err := m.Signer("default")
	require.NoError(t, err)
	return s
}

func deployedOn(networkID string) *contract.Deployments {
	return contract.NewDeployments(map[string]map[string]string{
		networkID: {
			"MyToken":     testToken.Hex(),
			"MyTokenSale": testSaleAddr.Hex(),
			"KycContract": testKyc.Hex(),
		},
	})
}

func TestNodeLedgerAccount(t *testing.T) {
	l := NewNodeLedger(nil, nil, testSigner(t))
	acct, err := l.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccount, acct)
}

func TestNodeLedgerNoSigner(t *testing.T) {
	l := NewNodeLedger(nil, nil, nil)
	_, err := l.Account(context.Background())
	assert.ErrorIs(t, err, ErrNoAccount)
	_, err = l.TransactOpts(context.Background())
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestNodeLedgerNetworkID(t *testing.T) {
	c := nodeMock(t, map[string]interface{}{"net_version": "5777"}, nil)
	l := NewNodeLedger(c, deployedOn("5777"), nil)

	id, err := l.NetworkID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5777", id)
}

func TestNodeLedgerBind(t *testing.T) {
	l := NewNodeLedger(nodeMock(t, nil, nil), deployedOn("5"), nil)

	b, err := l.Bind(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, testToken, b.Token.Address())
	assert.Equal(t, testSaleAddr, b.Sale.Address())
	assert.Equal(t, testKyc, b.Allowlist.Address())
}

func TestNodeLedgerTransactOptsCachesChainID(t *testing.T) {
	var calls int32
	c := nodeMock(t, map[string]interface{}{"eth_chainId": "0x539"}, &calls)
	l := NewNodeLedger(c, deployedOn("5777"), testSigner(t))

	opts, err := l.TransactOpts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccount, opts.From)

	_, err = l.TransactOpts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// A network without a deployment never reaches the ready state.
func TestInitializeUndeployedNetworksFail(t *testing.T) {
	for _, networkID := range []string{"1", "3", "42", "1337", "5777"} {
		c := nodeMock(t, map[string]interface{}{"net_version": networkID}, nil)
		ctrl := New(NewNodeLedger(c, deployedOn("5"), testSigner(t)))

		_, _, err := ctrl.Initialize(context.Background())
		require.Error(t, err, networkID)
		assert.ErrorIs(t, err, contract.ErrNoDeployment, networkID)

		v := state.Apply(state.New(), state.LoadFailed{Err: err})
		v = state.Apply(v, state.Loaded{})
		assert.False(t, v.Loaded, networkID)
		ctrl.Close()
	}
}

func uintWord(n int64) string { return fmt.Sprintf("0x%064x", n) }

// Plain HTTP endpoints cannot push logs, so subscribing fails there.
func TestInitializeOverHTTPNeedsSubscriptions(t *testing.T) {
	c := nodeMock(t, map[string]interface{}{
		"net_version": "5",
		"eth_call":    uintWord(1000),
	}, nil)
	ctrl := New(NewNodeLedger(c, deployedOn("5"), testSigner(t)))
	t.Cleanup(ctrl.Close)

	_, _, err := ctrl.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribing to Transfer")
}

func TestInitializeOverHTTPWithoutSubscriptions(t *testing.T) {
	c := nodeMock(t, map[string]interface{}{
		"net_version": "5",
		"eth_call":    uintWord(1000),
	}, nil)
	require.False(t, c.Streaming())
	ctrl := New(NewNodeLedger(c, deployedOn("5"), testSigner(t)), WithoutSubscriptions())
	t.Cleanup(ctrl.Close)

	session, snap, err := ctrl.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", session.NetworkID)
	assert.Equal(t, testAccount, session.Account)
	assert.Equal(t, testSaleAddr, session.SaleAddress)
	assert.Equal(t, "1000", snap.TotalSupply.String())
	assert.Equal(t, "1000", snap.UserTokens.String())

	assert.ErrorIs(t, ctrl.Run(context.Background()), ErrNoSubscriptions)
	require.NoError(t, ctrl.Refresh(context.Background()))
}
