package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/cappu/internal/chain"
	"github.com/Mohsinsiddi/cappu/internal/config"
	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/sale"
	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/ui"
	"github.com/Mohsinsiddi/cappu/internal/wallet"
)

var _ ui.SaleController = (*sale.Controller)(nil)

// session bundles a dialed node and the controller built on it.
type session struct {
	client *chain.Client
	ctrl   *sale.Controller
}

func (s *session) Close() {
	s.ctrl.Close()
	s.client.Close()
}

// openSession dials the node, loads the deployment table and the signing
// wallet, and returns an uninitialized controller.
func openSession(ctx context.Context, sink func(state.Event)) (*session, error) {
	deployments, err := loadDeployments()
	if err != nil {
		return nil, err
	}

	signer, err := newWalletManager().Signer(cfg.Wallet)
	if err != nil {
		return nil, fmt.Errorf("loading wallet %q: %w", cfg.Wallet, err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()
	client, err := chain.Dial(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	opts := []sale.Option{
		sale.WithSink(sink),
		sale.WithLogger(logger.Named("sale")),
	}
	if !client.Streaming() {
		logger.Warn("endpoint does not support subscriptions; live updates disabled", zap.String("rpc", client.URL()))
		opts = append(opts, sale.WithoutSubscriptions())
	}

	ctrl := sale.New(sale.NewNodeLedger(client, deployments, signer), opts...)
	return &session{client: client, ctrl: ctrl}, nil
}

func loadDeployments() (*contract.Deployments, error) {
	d := contract.NewDeployments(cfg.Deployments)
	if err := d.LoadDir(cfg.ArtifactsDir); err != nil {
		return nil, fmt.Errorf("loading artifacts from %s: %w", cfg.ArtifactsDir, err)
	}
	return d, nil
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(wallet.DefaultKeystore(cfg.Dir())),
	)
}
