package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	require.Equal(t, NetworkEVM, c.Network)
	require.Equal(t, 70, c.LogCapacity)
	require.Equal(t, "account.json", c.AccountFile)
	require.Equal(t, 30*time.Second, c.HTTPTimeout)

	lo, hi := c.DelayRange()
	require.Equal(t, 10*time.Second, lo)
	require.Equal(t, 15*time.Second, hi)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NETWORK", "solana")
	t.Setenv("DELAY_MIN_SECONDS", "1")
	t.Setenv("DELAY_MAX_SECONDS", "2")
	t.Setenv("CONFIRM_POLL_INTERVAL", "500ms")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, NetworkSolana, c.Network)
	require.Equal(t, 500*time.Millisecond, c.ConfirmPollInterval)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Network:            NetworkEVM,
			RPCURL:             "http://localhost:8545",
			FaucetURL:          "http://localhost:9000",
			DelayMinSeconds:    10,
			DelayMaxSeconds:    15,
			LogCapacity:        70,
			BalanceConcurrency: 4,
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.DelayMinSeconds = 20
	require.ErrorContains(t, c.Validate(), "must not exceed")

	c = base()
	c.Network = "bitcoin"
	require.ErrorContains(t, c.Validate(), "unknown NETWORK")

	c = base()
	c.LogCapacity = 0
	require.Error(t, c.Validate())

	c = base()
	c.FaucetURL = ""
	require.Error(t, c.Validate())

	c.Network = NetworkSolana
	require.NoError(t, c.Validate())
}

func TestGetPanicsBeforeInit(t *testing.T) {
	saved := cfg
	cfg = nil
	defer func() { cfg = saved }()

	require.Panics(t, func() { Get() })
}
