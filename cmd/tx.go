package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/cappu/internal/config"
	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/ui"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist <address>",
	Short: "Mark an address as KYC-completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *session) error {
			spin := ui.NewSpinner(cmd.ErrOrStderr(), "Waiting for setKycCompleted to be mined...")
			spin.Start()
			err := sess.ctrl.SubmitWhitelist(ctx, args[0])
			spin.Stop()
			return err
		})
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy tokens by sending 1 wei to the sale contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *session) error {
			return sendAndRefresh(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), sess, "Purchase", sess.ctrl.SubmitPurchase)
		})
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn",
	Short: "Burn one token in exchange for a coffee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, sess *session) error {
			return sendAndRefresh(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), sess, "Burn", sess.ctrl.SubmitBurn)
		})
	},
}

// withSession opens and initializes a session bounded by
// config.TxConfirmTimeout and prints state events as they arrive.
func withSession(cmd *cobra.Command, fn func(context.Context, *session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), config.TxConfirmTimeout)
	defer cancel()

	sess, err := openSession(ctx, printEvents(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, _, err := sess.ctrl.Initialize(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Err(ui.FailureMessage))
		return err
	}
	return fn(ctx, sess)
}

func sendAndRefresh(ctx context.Context, out, status io.Writer, sess *session, label string,
	send func(context.Context) (*types.Transaction, error)) error {
	tx, err := send(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Info(label+" sent: ")+ui.Addr(tx.Hash().Hex()))

	spin := ui.NewSpinner(status, "Waiting for receipt...")
	spin.Start()
	err = sess.ctrl.WaitMined(ctx, tx)
	spin.Stop()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Success(label+" confirmed"))
	return sess.ctrl.Refresh(ctx)
}

// printEvents renders the events a one-shot command cares about. Failures
// are reported through the command's error instead.
func printEvents(w io.Writer) func(state.Event) {
	return func(ev state.Event) {
		switch ev := ev.(type) {
		case state.Acknowledged:
			fmt.Fprintln(w, ui.Success(ev.Message))
		case state.BalanceRefreshed:
			fmt.Fprintln(w, ui.Meta("You currently have: ")+ui.Val(ev.Balance.String())+ui.Meta(" CAPPU Tokens"))
		case state.SupplyRefreshed:
			fmt.Fprintln(w, ui.Meta("Total supply: ")+ui.Val(ev.Supply.String())+ui.Meta(" tokens"))
		}
	}
}
