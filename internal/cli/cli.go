package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vk/composegrid/internal/config"
	"github.com/vk/composegrid/internal/kernel"
	"github.com/vk/composegrid/internal/runtime"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// NewCommand builds the root command. Output, help included, goes to out.
// Without modules the kernel registers its core modules.
func NewCommand(out io.Writer, modules ...runtime.Module) *cobra.Command {
	root := &cobra.Command{
		Use:   "composegrid",
		Short: "ComposeGrid - a declarative component container.",
		Long: `ComposeGrid - a declarative component container.

Blocks describe components and containers in HCL. ComposeGrid resolves every
dependency, orders the components, and commissions them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	root.PersistentFlags().StringP("config", "c", "", "Path to a config file (yaml, toml or json).")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "run [BLOCK_PATH]",
			Short: "Commission a block and keep it running until interrupted.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd, args)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				k, err := kernel.New(ctx, out, cfg, modules...)
				if err != nil {
					return err
				}
				return k.Run(ctx)
			},
		},
		&cobra.Command{
			Use:   "plan [BLOCK_PATH]",
			Short: "Print the startup order of every partition without commissioning.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd, args)
				if err != nil {
					return err
				}
				k, err := kernel.New(cmd.Context(), io.Discard, cfg, modules...)
				if err != nil {
					return err
				}
				plans, err := k.Plan(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range plans {
					fmt.Fprintf(out, "partition %s\n", p.Partition)
					for i, path := range p.Startup {
						fmt.Fprintf(out, "  %d. %s\n", i+1, path)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "inspect MODEL_PATH",
			Short: "Print the assembled model at MODEL_PATH as JSON.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd, nil)
				if err != nil {
					return err
				}
				k, err := kernel.New(cmd.Context(), io.Discard, cfg, modules...)
				if err != nil {
					return err
				}
				view, err := k.Inspect(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			},
		},
	)
	return root
}

// loadConfig layers the config file, environment and flags. A positional
// block path wins over --block.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if len(args) > 0 {
		if err := cmd.Flags().Set("block", args[0]); err != nil {
			return nil, usageError(err)
		}
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, usageError(err)
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(fmt.Errorf("invalid configuration:\n%w", err))
	}
	return cfg, nil
}

// IsExitError reports whether err carries an exit code.
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	ok := errors.As(err, &exitErr)
	return exitErr, ok
}
