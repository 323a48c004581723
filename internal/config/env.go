package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	NetworkEVM    = "evm"
	NetworkSolana = "solana"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Network string `envconfig:"NETWORK" default:"evm"`
	RPCURL  string `envconfig:"RPC_URL" default:"https://mars.rpc.movachain.com/"`
	ChainID int64  `envconfig:"CHAIN_ID" default:"10323"` // 0 = ask the node

	FaucetURL     string `envconfig:"FAUCET_URL" default:"https://faucet.marsapi.movachain.com/api/faucet/v1/transfer"`
	FaucetOrigin  string `envconfig:"FAUCET_ORIGIN" default:"https://faucet.mars.movachain.com"`
	IPEchoURL     string `envconfig:"IP_ECHO_URL" default:"https://api.ipify.org?format=json"`
	ExplorerTxURL string `envconfig:"EXPLORER_TX_URL" default:"https://mars.scan.movachain.com/tx/"`
	TokenSymbol   string `envconfig:"TOKEN_SYMBOL" default:"MARS"`

	// Solana only: amount requested per airdrop, in SOL
	SolanaAirdropAmount string `envconfig:"SOLANA_AIRDROP_AMOUNT" default:"1"`

	AccountFile        string `envconfig:"ACCOUNT_FILE" default:"account.json"`
	ProxyFile          string `envconfig:"PROXY_FILE" default:"proxy.txt"`
	ProxyDefaultScheme string `envconfig:"PROXY_DEFAULT_SCHEME" default:"http"`

	DelayMinSeconds     int           `envconfig:"DELAY_MIN_SECONDS" default:"10"`
	DelayMaxSeconds     int           `envconfig:"DELAY_MAX_SECONDS" default:"15"`
	LogCapacity         int           `envconfig:"LOG_CAPACITY" default:"70"`
	HTTPTimeout         time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"2s"`
	BalanceConcurrency  int           `envconfig:"BALANCE_CONCURRENCY" default:"8"`

	Port string `envconfig:"PORT" default:"8080"`

	LogFile       string `envconfig:"LOG_FILE" default:"logs/faucetbot.log"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads and validates a fresh Config without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Network {
	case NetworkEVM, NetworkSolana:
	default:
		return fmt.Errorf("unknown NETWORK %q: must be %s or %s", c.Network, NetworkEVM, NetworkSolana)
	}
	if c.DelayMinSeconds < 0 || c.DelayMaxSeconds < 0 {
		return errors.New("DELAY_MIN_SECONDS and DELAY_MAX_SECONDS must not be negative")
	}
	if c.DelayMinSeconds > c.DelayMaxSeconds {
		return fmt.Errorf("DELAY_MIN_SECONDS (%d) must not exceed DELAY_MAX_SECONDS (%d)", c.DelayMinSeconds, c.DelayMaxSeconds)
	}
	if c.LogCapacity < 1 {
		return errors.New("LOG_CAPACITY must be at least 1")
	}
	if c.BalanceConcurrency < 1 {
		return errors.New("BALANCE_CONCURRENCY must be at least 1")
	}
	if c.RPCURL == "" {
		return errors.New("RPC_URL must be set")
	}
	if c.Network == NetworkEVM && c.FaucetURL == "" {
		return errors.New("FAUCET_URL must be set for the evm network")
	}
	return nil
}

// DelayRange returns the inter-wallet wait bounds.
func (c *Config) DelayRange() (time.Duration, time.Duration) {
	return time.Duration(c.DelayMinSeconds) * time.Second, time.Duration(c.DelayMaxSeconds) * time.Second
}
