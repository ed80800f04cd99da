package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/isseis/go-safe-ldd/internal/config"
	"github.com/isseis/go-safe-ldd/internal/logging"
	"github.com/isseis/go-safe-ldd/internal/terminal"
	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands once the persistent
// flags have been processed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	logLevel    string
	logFormat   string
	interactive bool
	color       bool
	noColor     bool
	quiet       bool

	cfg      *config.Config
	terminal terminal.Capabilities
	logger   *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ldlist",
		Short: "List the shared libraries an ELF binary needs",
		Long: `ldlist asks the dynamic loader named in a binary's .interp section which
shared objects it would map, then follows every symbolic link on the way so
the result names each file that must be present, links included.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Unknown subcommands reach RunE instead of cobra's legacy check.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a TOML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")
	flags.BoolVar(&a.interactive, "interactive", false, "Force interactive log output")
	flags.BoolVar(&a.color, "color", false, "Force colored output")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors, without interactive decoration")

	cmd.AddCommand(
		newListCmd(a),
		newInterpCmd(a),
		newExecCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads the configuration and installs the logger. Command line
// flags take precedence over the configuration file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := cfg.Log.Level
	switch {
	case cmd.Flags().Changed("log-level"):
		level = a.logLevel
	case a.quiet:
		level = "error"
	}
	slogLevel, err := logging.ParseLevel(level)
	if err != nil {
		return &usageError{err: err}
	}

	format := cfg.Log.Format
	if cmd.Flags().Changed("log-format") {
		format = a.logFormat
	}
	if err := logging.ValidateFormat(format); err != nil {
		return &usageError{err: err}
	}

	a.terminal = terminal.NewDetector(terminal.Options{
		ForceInteractive:    a.interactive,
		ForceNonInteractive: a.quiet,
		ForceColor:          a.color,
		DisableColor:        a.noColor,
	})
	logger, err := logging.NewLogger(logging.Options{
		Level:        slogLevel,
		Format:       format,
		Writer:       a.stderr,
		Capabilities: a.terminal,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logger = logger
	slog.SetDefault(logger)
	return nil
}

// requireArgs is cobra.MinimumNArgs reporting a usage error.
func requireArgs(n int, what string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("requires at least %d %s", n, what)
		}
		return nil
	}
}
