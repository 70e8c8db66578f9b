package sale

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/state"
)

var (
	testAccount  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testToken    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testSaleAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testKyc      = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

// ---------------------------------------------------------------------------
// subscriptions
// ---------------------------------------------------------------------------

type fakeSub struct {
	errc chan error
	once sync.Once
}

func newFakeSub() *fakeSub { return &fakeSub{errc: make(chan error, 1)} }

func (s *fakeSub) Err() <-chan error { return s.errc }

func (s *fakeSub) Unsubscribe() { s.once.Do(func() { close(s.errc) }) }

func (s *fakeSub) closed() bool {
	select {
	case _, ok := <-s.errc:
		return !ok
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// token
// ---------------------------------------------------------------------------

type fakeToken struct {
	mu      sync.Mutex
	supply  *big.Int
	balance *big.Int
	calls   []string
	burned  []*big.Int
	nonce   uint64

	supplyErr  error
	balanceErr error
	watchErr   error
	gate       chan struct{} // when set, each BalanceOf waits for one receive

	sink chan<- *contract.TransferEvent
	to   common.Address
	sub  *fakeSub
}

func newFakeToken(supply, balance int64) *fakeToken {
	return &fakeToken{
		supply:  big.NewInt(supply),
		balance: big.NewInt(balance),
		sub:     newFakeSub(),
	}
}

func (t *fakeToken) Address() common.Address { return testToken }

func (t *fakeToken) TotalSupply(context.Context) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "supply")
	if t.supplyErr != nil {
		return nil, t.supplyErr
	}
	return new(big.Int).Set(t.supply), nil
}

func (t *fakeToken) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	t.record("balance:start")
	if t.gate != nil {
		<-t.gate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "balance:end")
	if t.balanceErr != nil {
		return nil, t.balanceErr
	}
	if account != testAccount {
		return new(big.Int), nil
	}
	return new(big.Int).Set(t.balance), nil
}

func (t *fakeToken) Burn(_ *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.burned = append(t.burned, new(big.Int).Set(amount))
	t.balance.Sub(t.balance, amount)
	t.supply.Sub(t.supply, amount)
	t.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: t.nonce, To: &testToken}), nil
}

func (t *fakeToken) WatchTransfer(_ context.Context, to common.Address, sink chan<- *contract.TransferEvent) (event.Subscription, error) {
	if t.watchErr != nil {
		return nil, t.watchErr
	}
	t.sink = sink
	t.to = to
	return t.sub, nil
}

func (t *fakeToken) record(call string) {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	t.mu.Unlock()
}

func (t *fakeToken) callLog() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *fakeToken) count(call string) int {
	n := 0
	for _, c := range t.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (t *fakeToken) resetCalls() {
	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
}

func (t *fakeToken) setSupply(n int64) {
	t.mu.Lock()
	t.supply = big.NewInt(n)
	t.mu.Unlock()
}

// ---------------------------------------------------------------------------
// sale
// ---------------------------------------------------------------------------

type fakeSale struct {
	mu            sync.Mutex
	beneficiaries []common.Address
	values        []*big.Int
	watchErr      error

	sink chan<- *contract.PurchaseEvent
	sub  *fakeSub
}

func newFakeSale() *fakeSale { return &fakeSale{sub: newFakeSub()} }

func (s *fakeSale) Address() common.Address { return testSaleAddr }

func (s *fakeSale) BuyTokens(opts *bind.TransactOpts, beneficiary common.Address) (*types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiaries = append(s.beneficiaries, beneficiary)
	s.values = append(s.values, opts.Value)
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(s.values)), To: &testSaleAddr, Value: opts.Value}), nil
}

func (s *fakeSale) WatchTokensPurchased(_ context.Context, sink chan<- *contract.PurchaseEvent) (event.Subscription, error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	s.sink = sink
	return s.sub, nil
}

// ---------------------------------------------------------------------------
// allowlist
// ---------------------------------------------------------------------------

type fakeAllowlist struct {
	mu      sync.Mutex
	set     []common.Address
	sendErr error
}

func (k *fakeAllowlist) Address() common.Address { return testKyc }

func (k *fakeAllowlist) SetKycCompleted(_ *bind.TransactOpts, account common.Address) (*types.Transaction, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.sendErr != nil {
		return nil, k.sendErr
	}
	k.set = append(k.set, account)
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(k.set)), To: &testKyc}), nil
}

func (k *fakeAllowlist) KycCompleted(_ context.Context, account common.Address) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, a := range k.set {
		if a == account {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// ledger
// ---------------------------------------------------------------------------

type fakeLedger struct {
	networkID string
	bindings  Bindings
	bindErr   error
	optsErr   error
	waitErr   error
	status    uint64
}

func newFakeLedger(tok *fakeToken, s *fakeSale, k *fakeAllowlist) *fakeLedger {
	return &fakeLedger{
		networkID: "5",
		bindings:  Bindings{Token: tok, Sale: s, Allowlist: k},
		status:    types.ReceiptStatusSuccessful,
	}
}

func (l *fakeLedger) Account(context.Context) (common.Address, error) { return testAccount, nil }

func (l *fakeLedger) NetworkID(context.Context) (string, error) { return l.networkID, nil }

func (l *fakeLedger) Bind(context.Context, string) (Bindings, error) {
	if l.bindErr != nil {
		return Bindings{}, l.bindErr
	}
	return l.bindings, nil
}

func (l *fakeLedger) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if l.optsErr != nil {
		return nil, l.optsErr
	}
	return &bind.TransactOpts{From: testAccount, Context: ctx}, nil
}

func (l *fakeLedger) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if l.waitErr != nil {
		return nil, l.waitErr
	}
	return &types.Receipt{Status: l.status, TxHash: tx.Hash()}, nil
}

// ---------------------------------------------------------------------------
// event recorder
// ---------------------------------------------------------------------------

type recorder struct {
	mu     sync.Mutex
	events []state.Event
	ch     chan state.Event
}

func newRecorder() *recorder { return &recorder{ch: make(chan state.Event, 64)} }

func (r *recorder) sink(ev state.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) all() []state.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Event(nil), r.events...)
}

func (r *recorder) next(t *testing.T) state.Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state event")
		return nil
	}
}

var errBoom = errors.New("boom")
