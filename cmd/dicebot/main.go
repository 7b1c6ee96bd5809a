// Package main is the entry point for the dicebot server and CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/config"
	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/logging"
	"github.com/lemonberrylabs/dicebot/pkg/store"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errCommandFailed marks a CALC or ROLL whose failure was already printed.
var errCommandFailed = errors.New("command failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dicebot",
		Short:         "Dice roller and formula calculator",
		Version:       version + " (commit=" + commit + ", built=" + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("dicebot version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file (env settings still override it)")
	flags.Uint64("seed", 0, "seed for reproducible rolls (default random, env DICEBOT_SEED)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env DICEBOT_LOG_LEVEL)")
	flags.String("log-format", "", "log format: text or json (env DICEBOT_LOG_FORMAT)")
	flags.Int("max-repeat", 0, "cap on the [times] argument (default 10, env DICEBOT_MAX_REPEAT)")

	root.AddCommand(newServeCmd(), newCalcCmd(), newRollCmd())
	return root
}

// loadConfig reads the config file and environment, then applies any flags
// set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("max-repeat") {
		cfg.MaxRepeat, _ = flags.GetInt("max-repeat")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Lookup("grpc-port") != nil && flags.Changed("grpc-port") {
		cfg.GRPCPort, _ = flags.GetInt("grpc-port")
	}
	if flags.Lookup("host") != nil && flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	return cfg, cfg.Validate()
}

// newService wires the command service for cfg. A zero seed draws from the
// runtime generator.
func newService(cfg config.Config, reports *store.Store, log logrus.FieldLogger) *command.Service {
	var src dice.Source
	if cfg.Seed != 0 {
		src = dice.NewSeededSource(cfg.Seed)
	}

	opts := []command.Option{
		command.WithLogger(log),
		command.WithMaxRepeat(cfg.MaxRepeat),
	}
	if reports != nil {
		opts = append(opts, command.WithStore(reports))
	}
	return command.New(src, opts...)
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
}
