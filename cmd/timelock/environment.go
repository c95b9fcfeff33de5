package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/code-timelock/pkg/clock"
	code_data "github.com/code-payments/code-timelock/pkg/code/data"
	"github.com/code-payments/code-timelock/pkg/code/vault"
	pg "github.com/code-payments/code-timelock/pkg/database/postgres"
	"github.com/code-payments/code-timelock/pkg/lock"
	etcd_lock "github.com/code-payments/code-timelock/pkg/lock/etcd"
	"github.com/code-payments/code-timelock/pkg/lock/local"
)

const (
	etcdLockRootKey = "/timelock/locks"
	etcdDialTimeout = 5 * time.Second
)

// environment is everything a command needs to operate on a vault
type environment struct {
	log   *logrus.Entry
	clock clock.Clock
	db    *sql.DB
	data  code_data.Provider
	vault *vault.Vault

	closers []func()
}

var errNoDatabase = errors.New("no database configured (set db_host), use simulate to try the vault in memory")

// newPersistentEnvironment is newEnvironment for commands that change state,
// which would otherwise be applied to a ledger discarded on exit
func newPersistentEnvironment(opts *rootOptions) (*environment, error) {
	if len(opts.config.DbHost) == 0 {
		return nil, errNoDatabase
	}
	return newEnvironment(opts)
}

func newEnvironment(opts *rootOptions) (*environment, error) {
	config := opts.config

	env := &environment{
		log:   logrus.StandardLogger().WithField("type", "cmd/timelock"),
		clock: opts.clock(),
	}

	data, err := env.openData(config)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.data = data

	locks, err := env.openLocks(config)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.vault = vault.New(
		logrus.StandardLogger().WithField("type", "vault"),
		env.data,
		env.clock,
		locks,
		vault.WithOverrides(vaultOverrides(config)),
	)

	return env, nil
}

// newSimulatedEnvironment returns an in memory environment on a manual clock,
// independent of any configured infrastructure
func newSimulatedEnvironment(config *baseConfig, clk *clock.Manual) *environment {
	env := &environment{
		log:   logrus.StandardLogger().WithField("type", "cmd/timelock/simulate"),
		clock: clk,
		data:  code_data.NewTestDataProvider(),
	}

	env.vault = vault.New(
		logrus.StandardLogger().WithField("type", "vault"),
		env.data,
		clk,
		local.NewLockManager(),
		vault.WithOverrides(vaultOverrides(config)),
	)

	return env
}

func (e *environment) openData(config *baseConfig) (code_data.Provider, error) {
	if len(config.DbHost) == 0 {
		e.log.Debug("no database configured, reading from an empty in memory ledger")
		return code_data.NewTestDataProvider(), nil
	}

	mint := config.VaultMint
	if len(mint) == 0 {
		return nil, errors.New("vault mint must be configured alongside a database")
	}

	var db *sql.DB
	var err error
	if config.DbUseAwsIam {
		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}

		db, err = pg.NewWithAwsIam(config.DbUser, config.DbHost, fmt.Sprint(config.DbPort), config.DbName, awsConfig)
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to database with aws iam")
		}
	} else {
		db, err = pg.New(&pg.Config{
			User:               config.DbUser,
			Password:           config.DbPassword,
			Host:               config.DbHost,
			Port:               config.DbPort,
			DbName:             config.DbName,
			MaxOpenConnections: config.DbMaxOpenConnections,
			MaxIdleConnections: config.DbMaxIdleConnections,
		})
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to database")
		}
	}

	e.db = db
	e.closers = append(e.closers, func() { db.Close() })

	return code_data.NewDataProviderFromDB(db, mint), nil
}

func (e *environment) openLocks(config *baseConfig) (lock.Manager, error) {
	if len(config.EtcdEndpoints) == 0 {
		return local.NewLockManager(), nil
	}

	client, err := v3.New(v3.Config{
		Endpoints:   config.EtcdEndpoints,
		DialTimeout: etcdDialTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to etcd")
	}
	e.closers = append(e.closers, func() { client.Close() })

	locks, err := etcd_lock.NewLockManager(client, etcdLockRootKey, config.EtcdLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "error creating etcd lock manager")
	}
	e.closers = append(e.closers, locks.Close)

	return locks, nil
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func vaultOverrides(config *baseConfig) *vault.Overrides {
	return &vault.Overrides{
		Address:          config.VaultAddress,
		Mint:             config.VaultMint,
		MaxLockDuration:  config.MaxLockDuration,
		LockTimeout:      config.LockTimeout,
		WatcherBatchSize: config.WatcherBatchSize,
	}
}
