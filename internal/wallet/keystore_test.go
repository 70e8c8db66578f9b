package wallet

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0; never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// testKeystore returns a file-backed Keystore isolated to a temp directory.
// Using the FileBackend avoids OS keychain prompts in CI.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      "cappu-test",
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          t.TempDir(),
		FilePasswordFunc: func(string) (string, error) { return "testpass", nil },
	})
	require.NoError(t, err)
	return NewKeystore(ring)
}

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	assert.Equal(t, "abc123", normaliseHexKey("0xabc123"))
	assert.Equal(t, "abc123", normaliseHexKey("0Xabc123"))
	assert.Equal(t, "abc123", normaliseHexKey("abc123"))
	assert.Equal(t, "abc", normaliseHexKey("  0xabc  "))
	assert.Equal(t, "", normaliseHexKey("0x"))
	assert.Equal(t, "", normaliseHexKey(""))
}

// ---------------------------------------------------------------------------
// Keystore (file backend)
// ---------------------------------------------------------------------------

func TestKeystoreStoreAndRetrieve(t *testing.T) {
	ks := testKeystore(t)

	ref, err := ks.Store("alice", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "cappu.alice", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got, "stored keys are normalised")
}

func TestKeystoreRetrieveMissing(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Retrieve("cappu.ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keychain retrieve")
}

func TestKeystoreDelete(t *testing.T) {
	ks := testKeystore(t)
	ref, err := ks.Store("bob", testPrivKeyHex)
	require.NoError(t, err)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)
}

func TestKeystoreNilRing(t *testing.T) {
	ks := &Keystore{}

	_, err := ks.Store("x", testPrivKeyHex)
	assert.Error(t, err)
	_, err = ks.Retrieve("cappu.x")
	assert.ErrorContains(t, err, "keystore not available")
	assert.NoError(t, ks.Delete("cappu.x"))
}

// ---------------------------------------------------------------------------
// InMemoryKeystore
// ---------------------------------------------------------------------------

func TestInMemoryKeystoreStoreAndRetrieve(t *testing.T) {
	iks := NewInMemoryKeystore()
	ref, err := iks.Store("mykey", "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "cappu.mykey", ref)

	val, err := iks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", val)
}

func TestInMemoryKeystoreRetrieveNotFound(t *testing.T) {
	iks := NewInMemoryKeystore()
	_, err := iks.Retrieve("cappu.ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestInMemoryKeystoreDelete(t *testing.T) {
	iks := NewInMemoryKeystore()
	ref, _ := iks.Store("del", "secret")

	require.NoError(t, iks.Delete(ref))
	_, err := iks.Retrieve(ref)
	require.Error(t, err, "key should be gone after delete")

	assert.NoError(t, iks.Delete("cappu.ghost"), "deleting missing key must not error")
}
