// Package state holds the sale screen's view record and the pure
// transitions that move it forward. Nothing here talks to the ledger.
package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultKycAddress is the placeholder shown in the whitelist field.
const DefaultKycAddress = "0x123..."

// Action names a write the user can start from the sale screen.
type Action string

const (
	ActionWhitelist Action = "whitelist"
	ActionPurchase  Action = "purchase"
	ActionBurn      Action = "burn"
)

// Session is fixed once initialization succeeds.
type Session struct {
	Account     common.Address
	NetworkID   string
	SaleAddress common.Address
}

// Snapshot is the last observed token balance and supply.
type Snapshot struct {
	UserTokens  *big.Int
	TotalSupply *big.Int
}

// View is everything the sale screen renders.
type View struct {
	Loaded            bool
	Failed            error
	Session           Session
	Snapshot          Snapshot
	PendingKycAddress string
	Ack               string
	TxError           string
	Pending           map[Action]bool
}

// New returns the view shown while initialization is in progress.
func New() View {
	return View{
		Snapshot: Snapshot{
			UserTokens:  new(big.Int),
			TotalSupply: new(big.Int),
		},
		PendingKycAddress: DefaultKycAddress,
	}
}

// IsFailed reports whether initialization ended in the failure state.
func (v View) IsFailed() bool { return v.Failed != nil }

// IsPending reports whether a is in flight.
func (v View) IsPending(a Action) bool { return v.Pending[a] }

// Event is a state transition input. Events are values; applying one never
// mutates the view it was applied to.
type Event interface {
	apply(View) View
}

// Apply returns the view that follows v after ev.
// Before load only Loaded, LoadFailed and KycAddressChanged have an effect.
// Loaded and LoadFailed are mutually exclusive: whichever lands first wins.
func Apply(v View, ev Event) View {
	if ev == nil {
		return v
	}
	switch ev.(type) {
	case Loaded, LoadFailed, KycAddressChanged:
	default:
		if !v.Loaded {
			return v
		}
	}
	return ev.apply(v)
}

// Loaded moves the view into the ready state.
type Loaded struct {
	Session  Session
	Snapshot Snapshot
}

func (e Loaded) apply(v View) View {
	if v.Loaded || v.IsFailed() {
		return v
	}
	v.Loaded = true
	v.Session = e.Session
	v.Snapshot = Snapshot{
		UserTokens:  orZero(e.Snapshot.UserTokens),
		TotalSupply: orZero(e.Snapshot.TotalSupply),
	}
	return v
}

// LoadFailed moves the view into the terminal failure state.
type LoadFailed struct {
	Err error
}

func (e LoadFailed) apply(v View) View {
	if v.Loaded || v.IsFailed() {
		return v
	}
	v.Failed = e.Err
	return v
}

// BalanceRefreshed carries a fresh balanceOf(account) read.
type BalanceRefreshed struct {
	Balance *big.Int
}

func (e BalanceRefreshed) apply(v View) View {
	v.Snapshot.UserTokens = orZero(e.Balance)
	return v
}

// SupplyRefreshed carries a fresh totalSupply() read.
type SupplyRefreshed struct {
	Supply *big.Int
}

func (e SupplyRefreshed) apply(v View) View {
	v.Snapshot.TotalSupply = orZero(e.Supply)
	return v
}

// KycAddressChanged replaces the whitelist field's text and nothing else.
type KycAddressChanged struct {
	Value string
}

func (e KycAddressChanged) apply(v View) View {
	v.PendingKycAddress = e.Value
	return v
}

// TxStarted marks an action as in flight and clears the previous flash.
type TxStarted struct {
	Action Action
}

func (e TxStarted) apply(v View) View {
	v.Pending = withPending(v.Pending, e.Action, true)
	v.Ack = ""
	v.TxError = ""
	return v
}

// TxSubmitted marks an action as handed to the node.
type TxSubmitted struct {
	Action Action
	Hash   common.Hash
}

func (e TxSubmitted) apply(v View) View {
	v.Pending = withPending(v.Pending, e.Action, false)
	return v
}

// TxFailed records a write that did not go through.
type TxFailed struct {
	Action Action
	Err    error
}

func (e TxFailed) apply(v View) View {
	v.Pending = withPending(v.Pending, e.Action, false)
	if e.Err != nil {
		v.TxError = e.Err.Error()
	}
	return v
}

// Acknowledged is the one-shot message shown after a confirmed write.
type Acknowledged struct {
	Action  Action
	Message string
}

func (e Acknowledged) apply(v View) View {
	v.Pending = withPending(v.Pending, e.Action, false)
	v.Ack = e.Message
	return v
}

// Dismissed clears the flash line.
type Dismissed struct{}

func (Dismissed) apply(v View) View {
	v.Ack = ""
	v.TxError = ""
	return v
}

func withPending(cur map[Action]bool, a Action, on bool) map[Action]bool {
	next := make(map[Action]bool, len(cur)+1)
	for k, val := range cur {
		if val {
			next[k] = true
		}
	}
	if on {
		next[a] = true
	} else {
		delete(next, a)
	}
	return next
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}
