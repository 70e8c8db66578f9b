package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// TransferEvent is a decoded ERC-20 Transfer log.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// PurchaseEvent is a decoded Crowdsale TokensPurchased log.
type PurchaseEvent struct {
	Purchaser   common.Address
	Beneficiary common.Address
	Value       *big.Int // wei paid
	Amount      *big.Int // tokens delivered
}

// TokenBinding is a typed handle to a deployed MyToken.
type TokenBinding struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewTokenBinding binds a token deployment to backend.
func NewTokenBinding(d *Deployment, backend bind.ContractBackend) *TokenBinding {
	return &TokenBinding{address: d.Address, contract: boundContract(d, backend)}
}

// Address returns the token contract address.
func (t *TokenBinding) Address() common.Address { return t.address }

// TotalSupply reads totalSupply().
func (t *TokenBinding) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callUint(ctx, t.contract, "totalSupply")
}

// BalanceOf reads balanceOf(account).
func (t *TokenBinding) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callUint(ctx, t.contract, "balanceOf", account)
}

// Burn destroys amount tokens held by the sender.
func (t *TokenBinding) Burn(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "burn", amount)
}

// WatchTransfer streams Transfer events whose recipient is to.
func (t *TokenBinding) WatchTransfer(ctx context.Context, to common.Address, sink chan<- *TransferEvent) (event.Subscription, error) {
	return watch(ctx, t.contract, "Transfer", sink, nil, []interface{}{to})
}

// SaleBinding is a typed handle to a deployed MyTokenSale.
type SaleBinding struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewSaleBinding binds a sale deployment to backend.
func NewSaleBinding(d *Deployment, backend bind.ContractBackend) *SaleBinding {
	return &SaleBinding{address: d.Address, contract: boundContract(d, backend)}
}

// Address returns the sale contract address, which doubles as the deposit address.
func (s *SaleBinding) Address() common.Address { return s.address }

// BuyTokens purchases tokens for beneficiary, paying opts.Value wei.
func (s *SaleBinding) BuyTokens(opts *bind.TransactOpts, beneficiary common.Address) (*types.Transaction, error) {
	return s.contract.Transact(opts, "buyTokens", beneficiary)
}

// WatchTokensPurchased streams every TokensPurchased event.
func (s *SaleBinding) WatchTokensPurchased(ctx context.Context, sink chan<- *PurchaseEvent) (event.Subscription, error) {
	return watch(ctx, s.contract, "TokensPurchased", sink)
}

// AllowlistBinding is a typed handle to a deployed KycContract.
type AllowlistBinding struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewAllowlistBinding binds a KYC deployment to backend.
func NewAllowlistBinding(d *Deployment, backend bind.ContractBackend) *AllowlistBinding {
	return &AllowlistBinding{address: d.Address, contract: boundContract(d, backend)}
}

// Address returns the KYC contract address.
func (k *AllowlistBinding) Address() common.Address { return k.address }

// SetKycCompleted allows account to buy from the sale. Owner only.
func (k *AllowlistBinding) SetKycCompleted(opts *bind.TransactOpts, account common.Address) (*types.Transaction, error) {
	return k.contract.Transact(opts, "setKycCompleted", account)
}

// KycCompleted reads whether account is on the allow-list.
func (k *AllowlistBinding) KycCompleted(ctx context.Context, account common.Address) (bool, error) {
	var out []interface{}
	if err := k.contract.Call(&bind.CallOpts{Context: ctx}, &out, "kycCompleted", account); err != nil {
		return false, fmt.Errorf("calling kycCompleted: %w", err)
	}
	if len(out) == 0 {
		return false, fmt.Errorf("kycCompleted returned no value")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// --- helpers ---

func boundContract(d *Deployment, backend bind.ContractBackend) *bind.BoundContract {
	return bind.NewBoundContract(d.Address, d.ABI, backend, backend, backend)
}

func callUint(ctx context.Context, c *bind.BoundContract, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no value", method)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// watch subscribes to event name and forwards decoded logs to sink until the
// returned subscription is unsubscribed or the underlying one fails.
func watch[T any](ctx context.Context, c *bind.BoundContract, name string, sink chan<- *T, query ...[]interface{}) (event.Subscription, error) {
	logs, sub, err := c.WatchLogs(&bind.WatchOpts{Context: ctx}, name, query...)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", name, err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				ev := new(T)
				if err := c.UnpackLog(ev, name, log); err != nil {
					return fmt.Errorf("decoding %s: %w", name, err)
				}
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}
