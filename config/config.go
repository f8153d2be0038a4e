package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ipfs-force-community/metrics"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/types"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"
	// DefaultRepo holds the config, the jwt secret and the local keystore.
	DefaultRepo = "~/.onet-airdrop"
)

type Config struct {
	API      *APIConfig
	Chain    *ChainConfig
	Injected *InjectedConfig
	Relay    *RelayConfig
	Screen   *ScreenConfig
	Metrics  *metrics.MetricsConfig
	Trace    *metrics.TraceConfig
}

type APIConfig struct {
	ListenAddress string
}

type ChainConfig struct {
	ChainID         uint64
	ContractAddress string
	// RPC maps a chain id to the node endpoint.
	RPC                 map[string]string
	ReceiptPollInterval time.Duration
}

type InjectedConfig struct {
	// KeystoreDir is relative to the repo unless absolute.
	KeystoreDir   string
	Account       string
	PassphraseEnv string
}

type RelayConfig struct {
	// Origin is shown to relay wallets when the screen asks for accounts.
	Origin               string
	RequestQueueSize     int
	RequestTimeout       time.Duration
	ClearInterval        time.Duration
	DisableVerifyAddress bool
}

type ScreenConfig struct {
	ConnectTimeout time.Duration
	ClaimTimeout   time.Duration
}

func DefaultConfig() *Config {
	requestCfg := types.DefaultConfig()
	cfg := &Config{
		API: &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45180"},
		Chain: &ChainConfig{
			ChainID:             airdrop.DefaultChainID,
			ContractAddress:     airdrop.DefaultContractAddress,
			RPC:                 airdrop.DefaultRPC(),
			ReceiptPollInterval: time.Second,
		},
		Injected: &InjectedConfig{
			KeystoreDir:   "keystore",
			PassphraseEnv: "ONET_AIRDROP_PASSPHRASE",
		},
		Relay: &RelayConfig{
			Origin:           "onet-airdrop",
			RequestQueueSize: requestCfg.RequestQueueSize,
			RequestTimeout:   requestCfg.RequestTimeout,
			ClearInterval:    requestCfg.ClearInterval,
		},
		Screen: &ScreenConfig{
			ConnectTimeout: 2 * time.Minute,
			ClaimTimeout:   10 * time.Minute,
		},
		Metrics: metrics.DefaultMetricsConfig(),
		Trace:   metrics.DefaultTraceConfig(),
	}
	namespace := "onet_airdrop"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Metrics.Exporter.Prometheus.EndPoint = "/ip4/0.0.0.0/tcp/4580"
	cfg.Metrics.Exporter.Graphite.Port = 4580
	cfg.Trace.ServerName = "onet-airdrop"
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = toml.Unmarshal(data, cfg)

	return cfg, err
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// RepoPath expands a leading ~ in repo.
func RepoPath(repo string) (string, error) {
	if repo == "" {
		repo = DefaultRepo
	}
	return homedir.Expand(repo)
}

// Load reads the config of repo, falling back to defaults when it has none.
func Load(repo string) (*Config, error) {
	cfgPath := filepath.Join(repo, ConfigFile)
	cfg, err := ReadConfig(cfgPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.API == nil || c.Chain == nil || c.Injected == nil || c.Relay == nil || c.Screen == nil {
		return fmt.Errorf("config is missing a section")
	}
	if _, ok := c.Chain.RPC[strconv.FormatUint(c.Chain.ChainID, 10)]; !ok {
		return fmt.Errorf("no rpc endpoint for chain %d", c.Chain.ChainID)
	}
	if c.Relay.RequestQueueSize <= 0 {
		return fmt.Errorf("relay request queue size must be positive")
	}
	return nil
}

// KeystorePath resolves the injected keystore directory against repo.
func (c *Config) KeystorePath(repo string) string {
	dir, err := homedir.Expand(c.Injected.KeystoreDir)
	if err != nil {
		dir = c.Injected.KeystoreDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(repo, dir)
}

func (c *Config) RequestConfig() *types.RequestConfig {
	return &types.RequestConfig{
		RequestQueueSize: c.Relay.RequestQueueSize,
		RequestTimeout:   c.Relay.RequestTimeout,
		ClearInterval:    c.Relay.ClearInterval,
	}
}
