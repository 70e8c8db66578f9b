package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Built-in contract IDs.
const (
	KindToken     = "token"
	KindSale      = "sale"
	KindAllowlist = "allowlist"
)

// BuiltinKind describes one of the sale's contracts whose ABI is embedded in
// the binary. Each kind registers itself via init() in its own <name>_abi.go.
type BuiltinKind struct {
	ID           string   // machine key, e.g. "token"
	ArtifactName string   // Truffle contract name, e.g. "MyToken"
	Description  string   // one-line summary shown in `deployments`
	ABI          string   // full ABI JSON
	Methods      []string // method signatures a deployment must expose
	Events       []string // event signatures a deployment must expose
}

// Parse decodes the embedded ABI.
func (b BuiltinKind) Parse() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(b.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing %s ABI: %w", b.ArtifactName, err)
	}
	return parsed, nil
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the global registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
