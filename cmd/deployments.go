package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/cappu/internal/contract"
	"github.com/Mohsinsiddi/cappu/internal/ui"
)

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List the networks each sale contract is deployed on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeployments()
		if err != nil {
			return err
		}

		t := ui.NewTable(
			ui.Column{Title: "CONTRACT", Width: 14},
			ui.Column{Title: "ROLE", Width: 10},
			ui.Column{Title: "SOURCE", Width: 8},
			ui.Column{Title: "NETWORKS", Width: 24},
		)
		for _, kind := range contract.AllBuiltins() {
			networks := d.Networks(kind.ID)
			_, hasArtifact := d.Artifact(kind.ID)
			t.AddRow(kind.ArtifactName, kind.ID, sourceLabel(hasArtifact, networks), networkList(networks))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("artifacts: "+cfg.ArtifactsDir))
		return nil
	},
}

var deploymentsSetCmd = &cobra.Command{
	Use:   "set <network-id> <contract> <address>",
	Short: "Override a contract address for a network",
	Long: `Records an address override in config.json. Overrides win over the
addresses found in the Truffle artifacts. <contract> is the artifact name
(MyToken, MyTokenSale, KycContract) or its role (token, sale, allowlist).`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		networkID, name, address := args[0], args[1], args[2]

		artifact, err := artifactName(name)
		if err != nil {
			return err
		}
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}

		cfg.SetDeployment(networkID, artifact, common.HexToAddress(address).Hex())
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s on network %s → %s", artifact, networkID, ui.Addr(address))))
		return nil
	},
}

func init() {
	deploymentsCmd.AddCommand(deploymentsSetCmd)
}

// artifactName resolves a role or artifact name to the artifact name.
func artifactName(name string) (string, error) {
	for _, kind := range contract.AllBuiltins() {
		if strings.EqualFold(name, kind.ID) || strings.EqualFold(name, kind.ArtifactName) {
			return kind.ArtifactName, nil
		}
	}
	return "", fmt.Errorf("unknown contract %q", name)
}

// sourceLabel tells where a contract's addresses come from.
func sourceLabel(hasArtifact bool, networks []string) string {
	switch {
	case hasArtifact:
		return "artifact"
	case len(networks) > 0:
		return "config"
	default:
		return "—"
	}
}

func networkList(ids []string) string {
	if len(ids) == 0 {
		return "—"
	}
	return strings.Join(ids, ", ")
}
