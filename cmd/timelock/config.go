package main

import (
	"time"

	"github.com/spf13/viper"
)

// baseConfig is the process configuration, read from the config file and
// environment
type baseConfig struct {
	LogLevel string `mapstructure:"log_level"`
	AppName  string `mapstructure:"app_name"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	DbHost               string `mapstructure:"db_host"`
	DbPort               int    `mapstructure:"db_port"`
	DbUser               string `mapstructure:"db_user"`
	DbPassword           string `mapstructure:"db_password"`
	DbName               string `mapstructure:"db_name"`
	DbMaxOpenConnections int    `mapstructure:"db_max_open_connections"`
	DbMaxIdleConnections int    `mapstructure:"db_max_idle_connections"`

	// Authenticate to an Aurora RDS cluster with AWS IAM instead of a password
	DbUseAwsIam bool `mapstructure:"db_use_aws_iam"`

	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	EtcdLockTTL   time.Duration `mapstructure:"etcd_lock_ttl"`

	VaultAddress     string        `mapstructure:"vault_address"`
	VaultMint        string        `mapstructure:"vault_mint"`
	MaxLockDuration  time.Duration `mapstructure:"max_lock_duration"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
	WatcherBatchSize uint64        `mapstructure:"watcher_batch_size"`
	WatchSchedule    string        `mapstructure:"watch_schedule"`
}

var defaultConfig = baseConfig{
	LogLevel: "info",
	AppName:  "timelock",

	DbPort: 5432,

	EtcdLockTTL: 10 * time.Second,

	WatchSchedule: "@every 1s",
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")

	_ = viper.BindEnv("db_host", "DB_HOST")
	_ = viper.BindEnv("db_port", "DB_PORT")
	_ = viper.BindEnv("db_user", "DB_USER")
	_ = viper.BindEnv("db_password", "DB_PASSWORD")
	_ = viper.BindEnv("db_name", "DB_NAME")
	_ = viper.BindEnv("db_max_open_connections", "DB_MAX_OPEN_CONNECTIONS")
	_ = viper.BindEnv("db_max_idle_connections", "DB_MAX_IDLE_CONNECTIONS")
	_ = viper.BindEnv("db_use_aws_iam", "DB_USE_AWS_IAM")

	_ = viper.BindEnv("etcd_endpoints", "ETCD_ENDPOINTS")
	_ = viper.BindEnv("etcd_lock_ttl", "ETCD_LOCK_TTL")

	_ = viper.BindEnv("vault_address", "TIMELOCK_VAULT_ADDRESS")
	_ = viper.BindEnv("vault_mint", "TIMELOCK_VAULT_MINT")
	_ = viper.BindEnv("max_lock_duration", "TIMELOCK_VAULT_MAX_LOCK_DURATION")
	_ = viper.BindEnv("lock_timeout", "TIMELOCK_VAULT_LOCK_TIMEOUT")
	_ = viper.BindEnv("watcher_batch_size", "TIMELOCK_VAULT_WATCHER_BATCH_SIZE")
	_ = viper.BindEnv("watch_schedule", "TIMELOCK_WATCH_SCHEDULE")
}

// loadConfig reads the optional config file at path, and layers the
// environment on top of the defaults
func loadConfig(v *viper.Viper, path string) (*baseConfig, error) {
	if len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
