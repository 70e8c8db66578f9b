// Package fixtures exposes the Truffle build artifacts used by the end-to-end
// tests. Every artifact is deployed on network 5777 (Ganache).
package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// NetworkID is the network every fixture artifact is deployed on.
const NetworkID = "5777"

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ArtifactsDir returns the directory holding MyToken.json, MyTokenSale.json
// and KycContract.json.
func ArtifactsDir() string {
	return filepath.Join(fixturesDir(), "contracts")
}

// Address returns the address artifact name is deployed at on NetworkID.
func Address(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ArtifactsDir(), name+".json"))
	require.NoError(t, err, "failed to load fixture artifact: %s", name)

	var artifact struct {
		Networks map[string]struct {
			Address string `json:"address"`
		} `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(data, &artifact), "failed to parse fixture artifact: %s", name)
	return artifact.Networks[NetworkID].Address
}
