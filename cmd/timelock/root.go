package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/code-timelock/pkg/clock"
	"github.com/code-payments/code-timelock/pkg/metrics"
)

type rootOptions struct {
	configPath string
	logLevel   string
	now        int64

	config *baseConfig
	nr     *newrelic.Application
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "timelock",
		Short:         "Lock tokens in a vault until an unlock time has passed",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.nr != nil {
				opts.nr.Shutdown(5 * time.Second)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional configuration file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overriding the configured one")
	cmd.PersistentFlags().Int64Var(&opts.now, "now", 0, "pin the clock to a unix timestamp")

	cmd.AddCommand(
		newInitDbCmd(opts),
		newFundCmd(opts),
		newApproveCmd(opts),
		newLockCmd(opts),
		newWithdrawCmd(opts),
		newStatusCmd(opts),
		newBalanceCmd(opts),
		newListCmd(opts),
		newWatchCmd(opts),
		newSimulateCmd(opts),
	)

	return cmd
}

func (o *rootOptions) init() error {
	config, err := loadConfig(viper.GetViper(), o.configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if len(o.logLevel) > 0 {
		config.LogLevel = o.logLevel
	}
	o.config = config

	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
		o.nr = nr
	}

	configureLogger(config, o.nr)
	return nil
}

func (o *rootOptions) clock() clock.Clock {
	if o.now > 0 {
		return clock.NewManual(time.Unix(o.now, 0))
	}
	return clock.System()
}

func (o *rootOptions) context(ctx context.Context) context.Context {
	if o.nr == nil {
		return ctx
	}
	return metrics.NewContext(ctx, o.nr)
}

func configureLogger(config *baseConfig, nr *newrelic.Application) {
	if nr != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(nr, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
