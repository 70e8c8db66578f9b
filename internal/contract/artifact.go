package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoDeployment is returned when a contract has no address for a network id.
var ErrNoDeployment = errors.New("contract not deployed on network")

// Artifact is a Truffle build artifact: the ABI plus the deployed address for
// every network id the contract was migrated to.
type Artifact struct {
	ContractName string             `json:"contractName"`
	ABI          json.RawMessage    `json:"abi"`
	Networks     map[string]Network `json:"networks"`
}

// Network is one entry of an artifact's "networks" map.
type Network struct {
	Address         string `json:"address"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

// LoadArtifact reads a Truffle artifact JSON file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON %s: %w", path, err)
	}
	if len(a.ABI) < 2 || a.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no valid \"abi\" array: %s", path)
	}
	if a.ContractName == "" {
		a.ContractName = trimExt(filepath.Base(path))
	}
	return &a, nil
}

// ParsedABI decodes the artifact's ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing %s ABI: %w", a.ContractName, err)
	}
	return parsed, nil
}

// Address returns the deployed address for networkID.
func (a *Artifact) Address(networkID string) (common.Address, error) {
	n, ok := a.Networks[networkID]
	if !ok || !common.IsHexAddress(n.Address) {
		return common.Address{}, fmt.Errorf("%w: %s on network %s", ErrNoDeployment, a.ContractName, networkID)
	}
	addr := common.HexToAddress(n.Address)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s on network %s", ErrNoDeployment, a.ContractName, networkID)
	}
	return addr, nil
}

// NetworkIDs returns the network ids the artifact has deployments for, sorted.
func (a *Artifact) NetworkIDs() []string {
	out := make([]string, 0, len(a.Networks))
	for id := range a.Networks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
