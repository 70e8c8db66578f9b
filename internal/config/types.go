package config

// Config holds all cappu configuration.
type Config struct {
	RPCURL       string `json:"rpc_url"`
	ArtifactsDir string `json:"artifacts_dir"`
	Wallet       string `json:"wallet"`        // wallet name whose key signs transactions
	LogFile      string `json:"log_file"`
	OTLPEndpoint string `json:"otlp_endpoint"` // empty disables trace export

	// Deployments overrides artifact addresses: network id → artifact name → address.
	Deployments map[string]map[string]string `json:"deployments"`

	// internal: config dir path used for Save()
	configDir string
}

// env mirrors the overridable fields. Variables are prefixed with CAPPU_.
type env struct {
	RPCURL       string `envconfig:"RPC_URL"`
	ArtifactsDir string `envconfig:"ARTIFACTS_DIR"`
	Wallet       string `envconfig:"WALLET"`
	LogFile      string `envconfig:"LOG_FILE"`
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
}
