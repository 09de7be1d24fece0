package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/escrowd/app"
	"github.com/iov-one/escrowd/commands/server"
	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store/iavl"
	"github.com/iov-one/escrowd/x/escrow"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	appName = "escrowd"

	flagHome     = "home"
	flagLogLevel = "log_level"
	flagDebug    = "debug"
)

// cli holds the configuration shared by all commands. Every flag of the root
// command can be provided with an ESCROWD_ prefixed environment variable as
// well, for example ESCROWD_HOME.
type cli struct {
	conf *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{conf: viper.New()}

	root := &cobra.Command{
		Use:          appName,
		Short:        "Two-party escrow settlement node",
		SilenceUsage: true,
	}
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), "."+appName)
	root.PersistentFlags().String(flagHome, defaultHome, "directory to store files under")
	root.PersistentFlags().String(flagLogLevel, "info", "log level (debug, info, error or none)")
	root.PersistentFlags().Bool(flagDebug, false, "return full error messages with stack traces")

	c.conf.SetEnvPrefix(strings.ToUpper(appName))
	c.conf.AutomaticEnv()
	if err := c.conf.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		c.initCmd(),
		c.startCmd(),
		c.keysCmd(),
		c.txCmd(),
		c.queryCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) home() string {
	return c.conf.GetString(flagHome)
}

// logger writes to stderr, so that command output can be piped.
func (c *cli) logger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr)).With("module", appName)
	opt, err := log.AllowLevel(c.conf.GetString(flagLogLevel))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// openApp loads the application state from the home directory. The returned
// function releases the database and must always be called.
func (c *cli) openApp() (*app.Application, func(), error) {
	logger, err := c.logger()
	if err != nil {
		return nil, nil, err
	}
	dir := server.DataDir(c.home())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidInput, "create %s: %s", dir, err)
	}
	kv, err := iavl.NewCommitStore(dir, appName)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.NewApplication(appName, kv, app.NewStack(escrow.DefaultMetrics()))
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	a.WithLogger(logger).
		WithMetrics(app.DefaultMetrics()).
		WithDebug(c.conf.GetBool(flagDebug))
	return a, kv.Close, nil
}
