package main

import (
	"fmt"
	"io"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/isseis/go-safe-ldd/internal/config"
	"github.com/isseis/go-safe-ldd/internal/elfinterp"
	"github.com/isseis/go-safe-ldd/internal/ldd"
	"github.com/isseis/go-safe-ldd/internal/terminal"
	"github.com/spf13/cobra"
)

type listOptions struct {
	json      bool
	perBinary bool
	timeout   time.Duration
	listFlag  string
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list [flags] <binary>...",
		Short: "List the shared-library files each binary depends on",
		Long: `List prints every file the dynamic loader would map for the given binaries,
including the interpreter and each symbolic link between a library name and
the file it resolves to. With several binaries the union is printed unless
--per-binary is set. Any failure aborts the whole listing.`,
		Args: requireArgs(1, "binary path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("timeout") && opts.timeout < 0 {
				return usageErrorf("--timeout must not be negative")
			}
			if cmd.Flags().Changed("list-flag") {
				if err := config.ValidateListFlag(opts.listFlag); err != nil {
					return &usageError{err: err}
				}
			}
			lister := a.newLister(cmd, opts)

			results := make(map[string]ldd.Set, len(args))
			for _, binary := range args {
				deps, err := lister.List(cmd.Context(), binary)
				if err != nil {
					return fmt.Errorf("%s: %w", binary, err)
				}
				a.logger.Debug("Listed dependencies", "binary", binary, "count", len(deps))
				results[binary] = deps
			}

			if opts.json || a.cfg.Output.Format == config.OutputJSON {
				return writeJSON(a.stdout, jsonResults(results), useJSONColor(a))
			}
			if opts.perBinary {
				return writePerBinary(a.stdout, args, results)
			}
			return writeUnion(a.stdout, results)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.json, "json", false, "Print a JSON object mapping each binary to its files")
	flags.BoolVar(&opts.perBinary, "per-binary", false, "Group text output by binary")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Loader timeout, 0 for none (default from config, 60s)")
	flags.StringVar(&opts.listFlag, "list-flag", "", "Flag that puts the loader in list mode (default from config, --list)")
	return cmd
}

func (a *app) newLister(cmd *cobra.Command, opts listOptions) *ldd.Lister {
	timeout := a.cfg.Loader.TimeoutDuration()
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}
	listFlag := a.cfg.Loader.ListFlag
	if cmd.Flags().Changed("list-flag") {
		listFlag = opts.listFlag
	}

	return ldd.NewLister(
		ldd.WithLocator(elfinterp.NewLocator(elfinterp.WithFallbackPatterns(a.cfg.Fallback.FallbackPatterns()))),
		ldd.WithRunner(&ldd.ExecRunner{Env: a.cfg.Loader.Env}),
		ldd.WithListFlag(listFlag),
		ldd.WithTimeout(timeout),
	)
}

func writeUnion(w io.Writer, results map[string]ldd.Set) error {
	union := ldd.NewSet()
	for _, deps := range results {
		union.Merge(deps)
	}
	for _, path := range union.Sorted() {
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	return nil
}

func writePerBinary(w io.Writer, binaries []string, results map[string]ldd.Set) error {
	seen := make(map[string]bool, len(binaries))
	for _, binary := range binaries {
		if seen[binary] {
			continue
		}
		seen[binary] = true
		if _, err := fmt.Fprintf(w, "%s:\n", binary); err != nil {
			return err
		}
		for _, path := range results[binary].Sorted() {
			if _, err := fmt.Fprintf(w, "\t%s\n", path); err != nil {
				return err
			}
		}
	}
	return nil
}

func jsonResults(results map[string]ldd.Set) map[string][]string {
	out := make(map[string][]string, len(results))
	for binary, deps := range results {
		out[binary] = deps.Sorted()
	}
	return out
}

// useJSONColor reports whether JSON written to stdout should be colored.
// --color applies even when stdout is not a terminal.
func useJSONColor(a *app) bool {
	if a.color {
		return true
	}
	return terminal.IsTerminalWriter(a.stdout) && a.terminal.SupportsColor()
}

// writeJSON writes v indented, with ANSI colors when color is set.
func writeJSON(w io.Writer, v any, color bool) error {
	f := prettyjson.NewFormatter()
	f.DisabledColor = !color
	if color {
		// The formatter's colors otherwise follow fatih/color's own tty check.
		for _, c := range []*fcolor.Color{f.KeyColor, f.StringColor, f.BoolColor, f.NumberColor, f.NullColor} {
			c.EnableColor()
		}
	}
	data, err := f.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
