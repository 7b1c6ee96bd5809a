package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/config"
)

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "calc [times] <expression>",
		Short:   "Evaluate a formula, e.g. calc '3d6 + 4 * (2 ^ 3)'",
		Args:    cobra.MinimumNArgs(1),
		Example: "  dicebot calc 1+2*3\n  dicebot calc 3 2d6+1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, args, (*command.Service).Calc)
		},
	}
}

func newRollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roll [times] <XdY [+-*/ Z]>",
		Short:   "Roll dice notation, e.g. roll 3d6+2",
		Args:    cobra.MinimumNArgs(1),
		Example: "  dicebot roll 3d6\n  dicebot roll --nick ann 2 1d20+5",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, args, (*command.Service).Roll)
		},
	}
	cmd.Flags().String("nick", "", "name shown in the roll line")
	return cmd
}

type commandFunc func(*command.Service, context.Context, command.Request) ([]command.Outcome, error)

// runCommand prints one reply line per outcome and fails when any of them
// failed.
func runCommand(cmd *cobra.Command, args []string, run commandFunc) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Reply lines go to stdout; keep per-outcome logs off stderr unless asked.
	if !cmd.Flags().Changed("log-level") && os.Getenv(config.EnvPrefix+"LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	req := command.Request{Args: strings.Join(args, " ")}
	if f := cmd.Flags().Lookup("nick"); f != nil {
		req.Nick = f.Value.String()
	}

	outcomes, err := run(newService(cfg, nil, log), cmd.Context(), req)
	if err != nil {
		return err
	}

	failed := false
	for _, out := range outcomes {
		fmt.Fprintln(cmd.OutOrStdout(), out.Text)
		failed = failed || out.Err != nil
	}
	if failed {
		return errCommandFailed
	}
	return nil
}
