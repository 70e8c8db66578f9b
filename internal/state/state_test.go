package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testSale    = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func loadedView(t *testing.T) View {
	t.Helper()
	v := Apply(New(), Loaded{
		Session: Session{Account: testAccount, NetworkID: "5", SaleAddress: testSale},
		Snapshot: Snapshot{
			UserTokens:  big.NewInt(0),
			TotalSupply: big.NewInt(1000),
		},
	})
	require.True(t, v.Loaded)
	return v
}

func TestNewDefaults(t *testing.T) {
	v := New()
	assert.False(t, v.Loaded)
	assert.False(t, v.IsFailed())
	assert.Equal(t, DefaultKycAddress, v.PendingKycAddress)
	assert.Equal(t, "0", v.Snapshot.UserTokens.String())
	assert.Equal(t, "0", v.Snapshot.TotalSupply.String())
}

func TestLoadedPopulatesSession(t *testing.T) {
	v := loadedView(t)
	assert.Equal(t, testAccount, v.Session.Account)
	assert.Equal(t, "5", v.Session.NetworkID)
	assert.Equal(t, testSale, v.Session.SaleAddress)
	assert.Equal(t, "1000", v.Snapshot.TotalSupply.String())
	assert.Equal(t, "0", v.Snapshot.UserTokens.String())
}

func TestLoadedNilAmountsBecomeZero(t *testing.T) {
	v := Apply(New(), Loaded{})
	assert.Equal(t, "0", v.Snapshot.UserTokens.String())
	assert.Equal(t, "0", v.Snapshot.TotalSupply.String())
}

func TestLoadFailedIsTerminal(t *testing.T) {
	v := Apply(New(), LoadFailed{Err: errors.New("no deployment")})
	require.True(t, v.IsFailed())

	v = Apply(v, Loaded{Snapshot: Snapshot{TotalSupply: big.NewInt(1)}})
	assert.False(t, v.Loaded)
	assert.True(t, v.IsFailed())
}

func TestLoadFailedAfterReadyIgnored(t *testing.T) {
	v := Apply(loadedView(t), LoadFailed{Err: errors.New("late")})
	assert.True(t, v.Loaded)
	assert.False(t, v.IsFailed())
}

func TestEventsIgnoredBeforeLoad(t *testing.T) {
	before := New()
	events := []Event{
		BalanceRefreshed{Balance: big.NewInt(7)},
		SupplyRefreshed{Supply: big.NewInt(7)},
		TxStarted{Action: ActionBurn},
		TxFailed{Action: ActionBurn, Err: errors.New("x")},
		Acknowledged{Action: ActionWhitelist, Message: "x"},
	}
	for _, ev := range events {
		after := Apply(before, ev)
		assert.Equal(t, before, after, "%T", ev)
	}
}

func TestApplyNilEvent(t *testing.T) {
	v := loadedView(t)
	assert.Equal(t, v, Apply(v, nil))
}

func TestBalanceAndSupplyRefresh(t *testing.T) {
	v := loadedView(t)
	v = Apply(v, BalanceRefreshed{Balance: big.NewInt(3)})
	v = Apply(v, SupplyRefreshed{Supply: big.NewInt(1003)})
	assert.Equal(t, "3", v.Snapshot.UserTokens.String())
	assert.Equal(t, "1003", v.Snapshot.TotalSupply.String())
}

func TestRefreshCopiesAmount(t *testing.T) {
	n := big.NewInt(5)
	v := Apply(loadedView(t), BalanceRefreshed{Balance: n})
	n.SetInt64(99)
	assert.Equal(t, "5", v.Snapshot.UserTokens.String())
}

func TestKycAddressChangedTouchesOnlyField(t *testing.T) {
	v := loadedView(t)
	v = Apply(v, TxStarted{Action: ActionPurchase})
	v = Apply(v, TxFailed{Action: ActionPurchase, Err: errors.New("reverted")})

	next := Apply(v, KycAddressChanged{Value: "0xABC"})
	assert.Equal(t, "0xABC", next.PendingKycAddress)

	next.PendingKycAddress = v.PendingKycAddress
	assert.Equal(t, v, next)
}

func TestKycAddressChangedBeforeLoad(t *testing.T) {
	v := Apply(New(), KycAddressChanged{Value: "0xdead"})
	assert.Equal(t, "0xdead", v.PendingKycAddress)
	assert.False(t, v.Loaded)
}

func TestTxLifecycle(t *testing.T) {
	v := loadedView(t)

	v = Apply(v, TxStarted{Action: ActionWhitelist})
	assert.True(t, v.IsPending(ActionWhitelist))
	assert.False(t, v.IsPending(ActionBurn))

	v = Apply(v, Acknowledged{Action: ActionWhitelist, Message: "KYC for 0xABC is completed"})
	assert.False(t, v.IsPending(ActionWhitelist))
	assert.Equal(t, "KYC for 0xABC is completed", v.Ack)

	v = Apply(v, TxSubmitted{Action: ActionWhitelist})
	assert.Equal(t, "KYC for 0xABC is completed", v.Ack)

	v = Apply(v, TxStarted{Action: ActionBurn})
	assert.Empty(t, v.Ack)
	v = Apply(v, TxFailed{Action: ActionBurn, Err: errors.New("insufficient funds")})
	assert.False(t, v.IsPending(ActionBurn))
	assert.Equal(t, "insufficient funds", v.TxError)

	v = Apply(v, Dismissed{})
	assert.Empty(t, v.TxError)
	assert.Empty(t, v.Ack)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	v := Apply(loadedView(t), TxStarted{Action: ActionPurchase})
	_ = Apply(v, TxSubmitted{Action: ActionPurchase})
	_ = Apply(v, TxStarted{Action: ActionBurn})
	assert.True(t, v.IsPending(ActionPurchase))
	assert.False(t, v.IsPending(ActionBurn))
}
