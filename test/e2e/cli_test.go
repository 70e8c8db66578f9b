package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/cappu/test/fixtures"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "cappu-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "cappu")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"CAPPU_CONFIG_DIR="+configDir,
		"CAPPU_ARTIFACTS_DIR="+fixtures.ArtifactsDir(),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "cappu")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, sub := range []string{"run", "status", "whitelist", "buy", "burn", "deployments", "wallet"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--rpc")
	assert.Contains(t, out, "--wallet")
}

func TestDeploymentsFromArtifacts(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "deployments")
	require.NoError(t, err)
	for _, name := range []string{"MyToken", "MyTokenSale", "KycContract"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, fixtures.NetworkID)
}

func TestDeploymentsOverrideListed(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "deployments", "set", "5", "sale", fixtures.Address(t, "MyTokenSale"))
	require.NoError(t, err)

	out, err := runCLI(t, dir, "deployments")
	require.NoError(t, err)
	assert.Contains(t, out, "5, "+fixtures.NetworkID)

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"MyTokenSale"`)
}

func TestWalletShowEmpty(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "wallet", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No wallets imported yet")
}

func TestStatusWithoutWalletFails(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "status", "--rpc", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(out), "wallet")
}

func TestLogFileWritten(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "deployments", "--verbose")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "cappu.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "config loaded")
}
