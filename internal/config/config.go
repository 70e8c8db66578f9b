package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultRPCURL       = "ws://127.0.0.1:7545"
	defaultArtifactsDir = "build/contracts"
	defaultWallet       = "default"
	envPrefix           = "cappu"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	logFile     = "cappu.log"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.cappu.
// CAPPU_* environment variables override values from the file.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".cappu")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.configDir = dir
	if cfg.Deployments == nil {
		cfg.Deployments = make(map[string]map[string]string)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// SetDeployment records an address override for an artifact on a network.
func (c *Config) SetDeployment(networkID, artifact, address string) {
	if c.Deployments == nil {
		c.Deployments = make(map[string]map[string]string)
	}
	if c.Deployments[networkID] == nil {
		c.Deployments[networkID] = make(map[string]string)
	}
	c.Deployments[networkID][artifact] = address
}

// WalletsPath returns the path of wallets.json.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		RPCURL:       defaultRPCURL,
		ArtifactsDir: defaultArtifactsDir,
		Wallet:       defaultWallet,
		LogFile:      filepath.Join(dir, logFile),
		Deployments:  make(map[string]map[string]string),
		configDir:    dir,
	}
}

func (c *Config) applyEnv() error {
	var e env
	if err := envconfig.Process(envPrefix, &e); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if e.RPCURL != "" {
		c.RPCURL = e.RPCURL
	}
	if e.ArtifactsDir != "" {
		c.ArtifactsDir = e.ArtifactsDir
	}
	if e.Wallet != "" {
		c.Wallet = e.Wallet
	}
	if e.LogFile != "" {
		c.LogFile = e.LogFile
	}
	if e.OTLPEndpoint != "" {
		c.OTLPEndpoint = e.OTLPEndpoint
	}
	return nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
