package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/cappu/internal/ui"
	"github.com/Mohsinsiddi/cappu/internal/wallet"
)

var (
	walletKeyFlag string
	walletYesFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the signing wallet",
}

var walletImportCmd = &cobra.Command{
	Use:   "import [name]",
	Short: "Import a private key into the OS keychain",
	Long: `Imports a hex private key. The key is stored in the OS keychain (or an
encrypted file under the config dir when no keychain is available); only the
name and address are written to wallets.json.

Without --key the key is read from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.Wallet
		if len(args) == 1 {
			name = args[0]
		}

		key := walletKeyFlag
		if key == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Private key: ")
			var err error
			if key, err = readLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		w, err := newWalletManager().Import(name, key)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet %q imported: %s", name, ui.Addr(w.Address))))
		if name != cfg.Wallet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint(fmt.Sprintf("Sign with it using: cappu --wallet %s", name)))
		}
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List imported wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Info("No wallets imported yet."))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Import one with: cappu wallet import"))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "NAME", Width: 16},
			ui.Column{Title: "ADDRESS", Width: 42},
			ui.Column{Title: "ACTIVE", Width: 6},
		)
		for _, w := range wallets {
			active := ""
			if w.Name == cfg.Wallet {
				active = "✓"
			}
			t.AddRow(w.Name, w.Address, active)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and delete its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYesFlag && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Remove wallet %q and its key?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				return fmt.Errorf("no wallet named %q", name)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (read from stdin when omitted)")
	walletRemoveCmd.Flags().BoolVarP(&walletYesFlag, "yes", "y", false, "skip the confirmation prompt")

	walletCmd.AddCommand(walletImportCmd, walletShowCmd, walletRemoveCmd)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading key: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no key given")
	}
	return line, nil
}
