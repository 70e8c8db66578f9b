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

	"github.com/Mohsinsiddi/cappu/internal/chain"
	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/wallet"
)

// ErrNoAccount is returned when no signing wallet is configured.
var ErrNoAccount = errors.New("no account available")

// Ledger is what the controller needs from the node and the key custody layer.
type Ledger interface {
	Account(ctx context.Context) (common.Address, error)
	NetworkID(ctx context.Context) (string, error)
	Bind(ctx context.Context, networkID string) (Bindings, error)
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Bindings are the three sale contracts on one network.
type Bindings struct {
	Token     Token
	Sale      Sale
	Allowlist Allowlist
}

// NodeLedger is the Ledger backed by a JSON-RPC node, a deployment table and
// a keychain signer.
type NodeLedger struct {
	backend     chain.Backend
	deployments *contract.Deployments
	signer      *wallet.Signer

	mu      sync.Mutex
	chainID *big.Int
}

var _ Ledger = (*NodeLedger)(nil)

// NewNodeLedger creates a ledger. signer may be nil for read-only use, in
// which case Account fails with ErrNoAccount.
func NewNodeLedger(backend chain.Backend, deployments *contract.Deployments, signer *wallet.Signer) *NodeLedger {
	return &NodeLedger{backend: backend, deployments: deployments, signer: signer}
}

func (l *NodeLedger) Account(context.Context) (common.Address, error) {
	if l.signer == nil {
		return common.Address{}, ErrNoAccount
	}
	return l.signer.Address(), nil
}

func (l *NodeLedger) NetworkID(ctx context.Context) (string, error) {
	id, err := l.backend.NetworkID(ctx)
	if err != nil {
		return "", fmt.Errorf("getting network id: %w", err)
	}
	return id.String(), nil
}

// Bind resolves the Token, Sale and Allowlist deployments on networkID.
func (l *NodeLedger) Bind(_ context.Context, networkID string) (Bindings, error) {
	token, err := l.deployments.Resolve(contract.KindToken, networkID)
	if err != nil {
		return Bindings{}, err
	}
	sale, err := l.deployments.Resolve(contract.KindSale, networkID)
	if err != nil {
		return Bindings{}, err
	}
	kyc, err := l.deployments.Resolve(contract.KindAllowlist, networkID)
	if err != nil {
		return Bindings{}, err
	}
	return Bindings{
		Token:     contract.NewTokenBinding(token, l.backend),
		Sale:      contract.NewSaleBinding(sale, l.backend),
		Allowlist: contract.NewAllowlistBinding(kyc, l.backend),
	}, nil
}

// TransactOpts returns signing options for the active account. The chain id
// is fetched once and cached.
func (l *NodeLedger) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if l.signer == nil {
		return nil, ErrNoAccount
	}
	chainID, err := l.chainIDOnce(ctx)
	if err != nil {
		return nil, err
	}
	return l.signer.TransactOpts(ctx, chainID)
}

func (l *NodeLedger) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, l.backend, tx)
}

func (l *NodeLedger) chainIDOnce(ctx context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chainID != nil {
		return l.chainID, nil
	}
	id, err := l.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chain id: %w", err)
	}
	l.chainID = id
	return id, nil
}
