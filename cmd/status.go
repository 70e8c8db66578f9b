package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/cappu/internal/chain"
	"github.com/Mohsinsiddi/cappu/internal/config"
	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print account, network, sale address, balance and supply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.DialTimeout*3)
		defer cancel()

		sess, err := openSession(ctx, nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		spin := ui.NewSpinner(cmd.ErrOrStderr(), "Loading Web3, accounts, and contract...")
		spin.Start()
		session, snap, err := sess.ctrl.Initialize(ctx)
		if err != nil {
			spin.StopWithMsg(ui.Err(ui.FailureMessage))
			return err
		}
		r := statusReport{URL: sess.client.URL(), Session: session, Snapshot: snap}
		r.KYC, r.KYCErr = sess.ctrl.KycCompleted(ctx, session.Account)
		r.Identity, r.IdentityErr = sess.client.Identity(ctx)
		r.Latency, r.Block, r.PingErr = sess.client.Ping(ctx)
		spin.Stop()

		renderStatus(cmd.OutOrStdout(), r)
		return nil
	},
}

// statusReport is everything `status` gathers before printing.
type statusReport struct {
	URL      string
	Session  state.Session
	Snapshot state.Snapshot

	KYC    bool
	KYCErr error

	Identity    chain.Identity
	IdentityErr error

	Latency time.Duration
	Block   uint64
	PingErr error
}

func renderStatus(w io.Writer, r statusReport) {
	nodeLine := r.URL
	if r.PingErr == nil {
		nodeLine = fmt.Sprintf("%s  (block #%d, %s)", r.URL, r.Block, r.Latency.Round(time.Millisecond))
	}
	chainID := "unknown"
	if r.IdentityErr == nil && r.Identity.ChainID != nil {
		chainID = r.Identity.ChainID.String()
	}

	fmt.Fprintln(w, ui.Banner())
	fmt.Fprintln(w, ui.KeyValueBlock("Status", [][2]string{
		{"Node", nodeLine},
		{"Network", r.Session.NetworkID},
		{"Chain ID", chainID},
		{"Account", r.Session.Account.Hex()},
		{"KYC", kycLabel(r.KYC, r.KYCErr)},
		{"Sale address", r.Session.SaleAddress.Hex()},
		{"Balance", r.Snapshot.UserTokens.String() + " CAPPU"},
		{"Total supply", r.Snapshot.TotalSupply.String() + " tokens"},
	}))
}

func kycLabel(done bool, err error) string {
	switch {
	case err != nil:
		return "unknown"
	case done:
		return "completed"
	default:
		return "not completed"
	}
}
