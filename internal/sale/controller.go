// Package sale keeps the sale screen in step with the ledger: it loads the
// session, follows Transfer and TokensPurchased events and submits the
// whitelist, purchase and burn transactions.
package sale

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/cappu/internal/config"
	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/telemetry"
)

// Token is the slice of the ERC20 token the sale screen uses.
type Token interface {
	Address() common.Address
	TotalSupply(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Burn(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	WatchTransfer(ctx context.Context, to common.Address, sink chan<- *contract.TransferEvent) (event.Subscription, error)
}

// Sale is the crowdsale contract.
type Sale interface {
	Address() common.Address
	BuyTokens(opts *bind.TransactOpts, beneficiary common.Address) (*types.Transaction, error)
	WatchTokensPurchased(ctx context.Context, sink chan<- *contract.PurchaseEvent) (event.Subscription, error)
}

// Allowlist is the KYC contract.
type Allowlist interface {
	Address() common.Address
	SetKycCompleted(opts *bind.TransactOpts, account common.Address) (*types.Transaction, error)
	KycCompleted(ctx context.Context, account common.Address) (bool, error)
}

var (
	_ Token     = (*contract.TokenBinding)(nil)
	_ Sale      = (*contract.SaleBinding)(nil)
	_ Allowlist = (*contract.AllowlistBinding)(nil)
)

var (
	// ErrReverted is returned when a transaction was mined with a failed status.
	ErrReverted = errors.New("transaction reverted")
	// ErrNoSubscriptions is returned by Run on a controller built
	// WithoutSubscriptions.
	ErrNoSubscriptions = errors.New("endpoint does not support subscriptions")

	errNotReady       = errors.New("sale controller not initialized")
	errAlreadyStarted = errors.New("sale controller already initialized")
)

// eventBuffer bounds how many undelivered log events each subscription holds.
const eventBuffer = 16

// Option configures a Controller.
type Option func(*Controller)

// WithSink routes state events produced outside the caller's goroutine.
func WithSink(sink func(state.Event)) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithTracer overrides the tracer from the telemetry package.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// WithoutSubscriptions skips the Transfer and TokensPurchased subscriptions,
// for endpoints that cannot push notifications. Reads and writes work as
// usual; Run returns ErrNoSubscriptions at once and mined purchases and burns
// are refreshed directly.
func WithoutSubscriptions() Option {
	return func(c *Controller) { c.noSubs = true }
}

// Controller owns the session and the two event subscriptions.
type Controller struct {
	ledger Ledger
	noSubs bool
	sink   func(state.Event)
	log    *zap.Logger
	tracer trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready    bool
	session  state.Session
	bindings Bindings

	transfers   chan *contract.TransferEvent
	purchases   chan *contract.PurchaseEvent
	refresh     chan struct{}
	transferSub event.Subscription
	purchaseSub event.Subscription

	closeOnce sync.Once
}

// New creates a controller over ledger.
func New(ledger Ledger, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		ledger:    ledger,
		log:       zap.NewNop(),
		tracer:    telemetry.Tracer(),
		ctx:       ctx,
		cancel:    cancel,
		transfers: make(chan *contract.TransferEvent, eventBuffer),
		purchases: make(chan *contract.PurchaseEvent, eventBuffer),
		refresh:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns the session established by Initialize.
func (c *Controller) Session() state.Session { return c.session }

// Initialize resolves the account, network and contracts, subscribes to
// Transfer (to the account) and TokensPurchased, then reads supply and
// balance. A missing deployment fails with contract.ErrNoDeployment.
func (c *Controller) Initialize(ctx context.Context) (_ state.Session, _ state.Snapshot, err error) {
	ctx, span := c.tracer.Start(ctx, "sale.Initialize")
	defer func() { endSpan(span, err) }()

	if c.ready {
		return state.Session{}, state.Snapshot{}, errAlreadyStarted
	}

	account, err := c.ledger.Account(ctx)
	if err != nil {
		return state.Session{}, state.Snapshot{}, fmt.Errorf("resolving account: %w", err)
	}
	networkID, err := c.ledger.NetworkID(ctx)
	if err != nil {
		return state.Session{}, state.Snapshot{}, err
	}
	span.SetAttributes(attribute.String("network.id", networkID))

	b, err := c.ledger.Bind(ctx, networkID)
	if err != nil {
		return state.Session{}, state.Snapshot{}, fmt.Errorf("binding contracts on network %s: %w", networkID, err)
	}

	if !c.noSubs {
		if c.transferSub, err = b.Token.WatchTransfer(ctx, account, c.transfers); err != nil {
			return state.Session{}, state.Snapshot{}, err
		}
		if c.purchaseSub, err = b.Sale.WatchTokensPurchased(ctx, c.purchases); err != nil {
			c.unsubscribe()
			return state.Session{}, state.Snapshot{}, err
		}
	}

	supply, err := b.Token.TotalSupply(ctx)
	if err != nil {
		c.unsubscribe()
		return state.Session{}, state.Snapshot{}, fmt.Errorf("reading total supply: %w", err)
	}
	balance, err := b.Token.BalanceOf(ctx, account)
	if err != nil {
		c.unsubscribe()
		return state.Session{}, state.Snapshot{}, fmt.Errorf("reading balance: %w", err)
	}

	c.bindings = b
	c.session = state.Session{
		Account:     account,
		NetworkID:   networkID,
		SaleAddress: b.Sale.Address(),
	}
	c.ready = true

	c.log.Info("sale session ready",
		zap.String("account", account.Hex()),
		zap.String("network", networkID),
		zap.String("sale", c.session.SaleAddress.Hex()),
		zap.String("supply", supply.String()),
		zap.String("balance", balance.String()),
	)
	return c.session, state.Snapshot{UserTokens: balance, TotalSupply: supply}, nil
}

// Run consumes subscription events until ctx is done, Close is called or a
// subscription fails. Events are handled one at a time: a Transfer re-reads
// the balance and then the supply before the next event is looked at.
func (c *Controller) Run(ctx context.Context) error {
	if !c.ready {
		return errNotReady
	}
	if c.noSubs {
		return ErrNoSubscriptions
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.ctx.Done():
			return nil

		case ev := <-c.transfers:
			c.log.Debug("transfer received",
				zap.String("from", ev.From.Hex()),
				zap.String("value", ev.Value.String()))
			c.refreshAll(ctx)

		case ev := <-c.purchases:
			c.log.Debug("tokens purchased",
				zap.String("beneficiary", ev.Beneficiary.Hex()),
				zap.String("amount", ev.Amount.String()))
			c.refreshSupply(ctx) //nolint:errcheck

		case <-c.refresh:
			c.refreshAll(ctx)

		case err, ok := <-c.transferSub.Err():
			if !ok {
				return nil
			}
			return fmt.Errorf("transfer subscription: %w", err)
		case err, ok := <-c.purchaseSub.Err():
			if !ok {
				return nil
			}
			return fmt.Errorf("purchase subscription: %w", err)
		}
	}
}

// Refresh re-reads balance and supply and publishes both.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.ready {
		return errNotReady
	}
	if err := c.refreshBalance(ctx); err != nil {
		return err
	}
	return c.refreshSupply(ctx)
}

// KycCompleted reports whether account has passed KYC.
func (c *Controller) KycCompleted(ctx context.Context, account common.Address) (bool, error) {
	if !c.ready {
		return false, errNotReady
	}
	return c.bindings.Allowlist.KycCompleted(ctx, account)
}

// SubmitWhitelist marks addr as KYC-completed and waits for the receipt.
// On success exactly one acknowledgement is published.
func (c *Controller) SubmitWhitelist(ctx context.Context, addr string) (err error) {
	ctx, span := c.tracer.Start(ctx, "sale.SubmitWhitelist",
		trace.WithAttributes(attribute.String("kyc.address", addr)))
	defer func() { endSpan(span, err) }()

	if !c.ready {
		return errNotReady
	}
	target, err := ParseAddress(addr)
	if err != nil {
		return err
	}
	opts, err := c.ledger.TransactOpts(ctx)
	if err != nil {
		return err
	}
	tx, err := c.bindings.Allowlist.SetKycCompleted(opts, target)
	if err != nil {
		return fmt.Errorf("sending setKycCompleted: %w", err)
	}
	c.log.Info("whitelist submitted", zap.String("address", target.Hex()), zap.String("tx", tx.Hash().Hex()))

	if err := c.confirm(ctx, tx); err != nil {
		return err
	}
	c.publish(state.Acknowledged{Action: state.ActionWhitelist, Message: WhitelistAck(addr)})
	return nil
}

// SubmitPurchase sends buyTokens(account) with config.PurchaseValueWei.
// Balance and supply are refreshed once the transaction is mined.
func (c *Controller) SubmitPurchase(ctx context.Context) (_ *types.Transaction, err error) {
	ctx, span := c.tracer.Start(ctx, "sale.SubmitPurchase")
	defer func() { endSpan(span, err) }()

	if !c.ready {
		return nil, errNotReady
	}
	opts, err := c.ledger.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = new(big.Int).Set(config.PurchaseValueWei)

	tx, err := c.bindings.Sale.BuyTokens(opts, c.session.Account)
	if err != nil {
		return nil, fmt.Errorf("sending buyTokens: %w", err)
	}
	c.log.Info("purchase submitted", zap.String("tx", tx.Hash().Hex()))
	c.track(state.ActionPurchase, tx)
	return tx, nil
}

// SubmitBurn sends burn(config.BurnAmount) from the account.
// Balance and supply are refreshed once the transaction is mined.
func (c *Controller) SubmitBurn(ctx context.Context) (_ *types.Transaction, err error) {
	ctx, span := c.tracer.Start(ctx, "sale.SubmitBurn")
	defer func() { endSpan(span, err) }()

	if !c.ready {
		return nil, errNotReady
	}
	opts, err := c.ledger.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := c.bindings.Token.Burn(opts, new(big.Int).Set(config.BurnAmount))
	if err != nil {
		return nil, fmt.Errorf("sending burn: %w", err)
	}
	c.log.Info("burn submitted", zap.String("tx", tx.Hash().Hex()))
	c.track(state.ActionBurn, tx)
	return tx, nil
}

// WaitMined blocks until tx is mined and fails if it reverted.
func (c *Controller) WaitMined(ctx context.Context, tx *types.Transaction) error {
	return c.confirm(ctx, tx)
}

// Close ends both subscriptions and waits for pending confirmations to stop.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.unsubscribe()
		c.wg.Wait()
	})
}

func (c *Controller) track(action state.Action, tx *types.Transaction) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.confirm(c.ctx, tx); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn("transaction failed", zap.String("action", string(action)), zap.Error(err))
			c.publish(state.TxFailed{Action: action, Err: err})
			return
		}
		if c.noSubs {
			// No consumer is running to serialize against.
			c.refreshAll(c.ctx)
			return
		}
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}()
}

func (c *Controller) confirm(ctx context.Context, tx *types.Transaction) error {
	receipt, err := c.ledger.WaitMined(ctx, tx)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return nil
}

func (c *Controller) refreshAll(ctx context.Context) {
	// A failed balance read skips the supply too; the next event retries both.
	if err := c.refreshBalance(ctx); err != nil {
		return
	}
	c.refreshSupply(ctx) //nolint:errcheck
}

func (c *Controller) refreshBalance(ctx context.Context) (err error) {
	ctx, span := c.tracer.Start(ctx, "sale.refreshBalance")
	defer func() { endSpan(span, err) }()

	balance, err := c.bindings.Token.BalanceOf(ctx, c.session.Account)
	if err != nil {
		c.log.Warn("balance refresh failed", zap.Error(err))
		return err
	}
	c.publish(state.BalanceRefreshed{Balance: balance})
	return nil
}

func (c *Controller) refreshSupply(ctx context.Context) (err error) {
	ctx, span := c.tracer.Start(ctx, "sale.refreshSupply")
	defer func() { endSpan(span, err) }()

	supply, err := c.bindings.Token.TotalSupply(ctx)
	if err != nil {
		c.log.Warn("supply refresh failed", zap.Error(err))
		return err
	}
	c.publish(state.SupplyRefreshed{Supply: supply})
	return nil
}

func (c *Controller) publish(ev state.Event) {
	if c.sink != nil {
		c.sink(ev)
	}
}

func (c *Controller) unsubscribe() {
	if c.transferSub != nil {
		c.transferSub.Unsubscribe()
	}
	if c.purchaseSub != nil {
		c.purchaseSub.Unsubscribe()
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
