package vault

import (
	"time"

	"github.com/code-payments/code-timelock/pkg/config"
	"github.com/code-payments/code-timelock/pkg/config/env"
	"github.com/code-payments/code-timelock/pkg/config/memory"
	"github.com/code-payments/code-timelock/pkg/config/wrapper"
)

const (
	envConfigPrefix = "TIMELOCK_VAULT_"

	AddressConfigEnvName = envConfigPrefix + "ADDRESS"
	defaultAddress       = "timelock-vault"

	MintConfigEnvName = envConfigPrefix + "MINT"
	defaultMint       = "token"

	MaxLockDurationConfigEnvName = envConfigPrefix + "MAX_LOCK_DURATION"
	defaultMaxLockDuration       = 10 * 365 * 24 * time.Hour

	LockTimeoutConfigEnvName = envConfigPrefix + "LOCK_TIMEOUT"
	defaultLockTimeout       = 5 * time.Second

	WatcherBatchSizeConfigEnvName = envConfigPrefix + "WATCHER_BATCH_SIZE"
	defaultWatcherBatchSize       = 250
)

type conf struct {
	address          config.String
	mint             config.String
	maxLockDuration  config.Duration
	lockTimeout      config.Duration
	watcherBatchSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return WithOverrides(&Overrides{})
}

// Overrides are process-level config values (eg. from CLI flags). Zero values
// fall back to the environment.
type Overrides struct {
	Address          string
	Mint             string
	MaxLockDuration  time.Duration
	LockTimeout      time.Duration
	WatcherBatchSize uint64
}

// WithOverrides returns configuration pulled from overrides, and the
// environment for anything not overridden
func WithOverrides(overrides *Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			address:          wrapper.NewStringConfig(overrideOrEnv(overrides.Address, AddressConfigEnvName), defaultAddress),
			mint:             wrapper.NewStringConfig(overrideOrEnv(overrides.Mint, MintConfigEnvName), defaultMint),
			maxLockDuration:  wrapper.NewDurationConfig(overrideOrEnv(overrides.MaxLockDuration, MaxLockDurationConfigEnvName), defaultMaxLockDuration),
			lockTimeout:      wrapper.NewDurationConfig(overrideOrEnv(overrides.LockTimeout, LockTimeoutConfigEnvName), defaultLockTimeout),
			watcherBatchSize: wrapper.NewUint64Config(overrideOrEnv(overrides.WatcherBatchSize, WatcherBatchSizeConfigEnvName), defaultWatcherBatchSize),
		}
	}
}

func overrideOrEnv[T comparable](value T, envName string) config.Config {
	var zero T
	if value == zero {
		return env.NewConfig(envName)
	}
	return memory.NewConfig(value)
}

type testOverrides struct {
	maxLockDuration  time.Duration
	watcherBatchSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	maxLockDuration := defaultMaxLockDuration
	if overrides.maxLockDuration > 0 {
		maxLockDuration = overrides.maxLockDuration
	}

	watcherBatchSize := uint64(defaultWatcherBatchSize)
	if overrides.watcherBatchSize > 0 {
		watcherBatchSize = overrides.watcherBatchSize
	}

	return func() *conf {
		return &conf{
			address:          wrapper.NewStringConfig(memory.NewConfig(defaultAddress), defaultAddress),
			mint:             wrapper.NewStringConfig(memory.NewConfig(defaultMint), defaultMint),
			maxLockDuration:  wrapper.NewDurationConfig(memory.NewConfig(maxLockDuration), defaultMaxLockDuration),
			lockTimeout:      wrapper.NewDurationConfig(memory.NewConfig(defaultLockTimeout), defaultLockTimeout),
			watcherBatchSize: wrapper.NewUint64Config(memory.NewConfig(watcherBatchSize), defaultWatcherBatchSize),
		}
	}
}
