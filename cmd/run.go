package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/cappu/internal/state"
	"github.com/Mohsinsiddi/cappu/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive sale screen (default)",
	Args:  cobra.NoArgs,
	RunE:  runSale,
}

func runSale(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var prog *tea.Program
	sink := func(ev state.Event) { prog.Send(ev) }

	var ctrl ui.SaleController
	sess, err := openSession(ctx, sink)
	if err != nil {
		// Setup failures land on the same failure screen as initialization.
		logger.Error("session setup failed", zap.Error(err))
		ctrl = failedSession{err: err}
	} else {
		defer sess.Close()
		ctrl = sess.ctrl
	}

	prog = tea.NewProgram(ui.NewSaleModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = prog.Run()
	return err
}

// failedSession reports a setup error from Initialize.
type failedSession struct{ err error }

func (f failedSession) Initialize(context.Context) (state.Session, state.Snapshot, error) {
	return state.Session{}, state.Snapshot{}, f.err
}

func (f failedSession) Run(context.Context) error { return f.err }

func (f failedSession) SubmitWhitelist(context.Context, string) error { return f.err }

func (f failedSession) SubmitPurchase(context.Context) (*types.Transaction, error) { return nil, f.err }

func (f failedSession) SubmitBurn(context.Context) (*types.Transaction, error) { return nil, f.err }
