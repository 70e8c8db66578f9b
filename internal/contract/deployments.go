package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Deployment is a resolved contract: its interface and its address on one network.
type Deployment struct {
	Kind    BuiltinKind
	Address common.Address
	ABI     abi.ABI
}

// Deployments maps (contract, network id) to a deployed address. Addresses
// come from Truffle artifacts, overlaid by explicit overrides.
type Deployments struct {
	artifacts map[string]*Artifact         // key: artifact name
	overrides map[string]map[string]string // network id → artifact name → address
}

// NewDeployments creates a table with the given address overrides.
func NewDeployments(overrides map[string]map[string]string) *Deployments {
	if overrides == nil {
		overrides = make(map[string]map[string]string)
	}
	return &Deployments{
		artifacts: make(map[string]*Artifact),
		overrides: overrides,
	}
}

// AddArtifact registers an artifact, replacing any with the same name.
func (d *Deployments) AddArtifact(a *Artifact) {
	d.artifacts[a.ContractName] = a
}

// LoadDir loads <ArtifactName>.json for every built-in kind from dir.
// Missing files are skipped; overrides may still supply the address.
func (d *Deployments) LoadDir(dir string) error {
	for _, kind := range AllBuiltins() {
		path := filepath.Join(dir, kind.ArtifactName+".json")
		a, err := LoadArtifact(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		d.AddArtifact(a)
	}
	return nil
}

// Artifact returns the loaded artifact for a kind, if any.
func (d *Deployments) Artifact(id string) (*Artifact, bool) {
	kind, ok := GetBuiltin(id)
	if !ok {
		return nil, false
	}
	a, ok := d.artifacts[kind.ArtifactName]
	return a, ok
}

// Resolve returns the deployment of kind id on networkID. The artifact's ABI
// is preferred over the embedded one but must still satisfy the kind's interface.
func (d *Deployments) Resolve(id, networkID string) (*Deployment, error) {
	kind, ok := GetBuiltin(id)
	if !ok {
		return nil, fmt.Errorf("unknown contract kind %q", id)
	}

	artifact := d.artifacts[kind.ArtifactName]

	parsed, err := kind.Parse()
	if err != nil {
		return nil, err
	}
	if artifact != nil {
		if parsed, err = artifact.ParsedABI(); err != nil {
			return nil, err
		}
	}
	if err := VerifyInterface(parsed, kind); err != nil {
		return nil, err
	}

	addr, err := d.address(kind, artifact, networkID)
	if err != nil {
		return nil, err
	}
	return &Deployment{Kind: kind, Address: addr, ABI: parsed}, nil
}

// Networks returns every network id on which kind id has an address, sorted.
func (d *Deployments) Networks(id string) []string {
	kind, ok := GetBuiltin(id)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	if a := d.artifacts[kind.ArtifactName]; a != nil {
		for _, n := range a.NetworkIDs() {
			seen[n] = true
		}
	}
	for n, byName := range d.overrides {
		if byName[kind.ArtifactName] != "" {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (d *Deployments) address(kind BuiltinKind, artifact *Artifact, networkID string) (common.Address, error) {
	if raw := d.overrides[networkID][kind.ArtifactName]; raw != "" {
		if !common.IsHexAddress(raw) {
			return common.Address{}, fmt.Errorf("invalid %s address override %q for network %s", kind.ArtifactName, raw, networkID)
		}
		return common.HexToAddress(raw), nil
	}
	if artifact == nil {
		return common.Address{}, fmt.Errorf("%w: %s on network %s (no artifact)", ErrNoDeployment, kind.ArtifactName, networkID)
	}
	return artifact.Address(networkID)
}
