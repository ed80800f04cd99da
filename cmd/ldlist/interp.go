package main

import (
	"fmt"
	"io"

	"github.com/isseis/go-safe-ldd/internal/elfinterp"
	"github.com/spf13/cobra"
)

// interpReport is the JSON form of one located interpreter.
type interpReport struct {
	Binary      string `json:"binary"`
	Interpreter string `json:"interpreter,omitempty"`
	Source      string `json:"source"`
	Reason      string `json:"reason,omitempty"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	Machine     string `json:"machine"`
}

func newInterpCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "interp [flags] <binary>...",
		Short: "Print the program interpreter of each binary",
		Long: `Interp prints the dynamic loader each binary would run under: the .interp
section when present, otherwise the first matching fallback loader for shared
objects. Binaries without one are printed with "-" and the reason.`,
		Args: requireArgs(1, "binary path"),
		RunE: func(_ *cobra.Command, args []string) error {
			locator := elfinterp.NewLocator(elfinterp.WithFallbackPatterns(a.cfg.Fallback.FallbackPatterns()))

			reports := make([]interpReport, 0, len(args))
			for _, binary := range args {
				res, err := locator.Locate(binary)
				if err != nil {
					return fmt.Errorf("%s: %w", binary, err)
				}
				a.logger.Debug("Located interpreter", "binary", binary, "interpreter", res.Path, "source", res.Source.String())
				reports = append(reports, newInterpReport(binary, res))
			}

			if asJSON {
				return writeJSON(a.stdout, reports, useJSONColor(a))
			}
			return writeInterpText(a.stdout, reports)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON array with ELF header details")
	return cmd
}

func newInterpReport(binary string, res elfinterp.Result) interpReport {
	return interpReport{
		Binary:      binary,
		Interpreter: res.Path,
		Source:      res.Source.String(),
		Reason:      res.Reason.String(),
		Class:       res.Class.String(),
		Type:        res.Type.String(),
		Machine:     res.Machine.String(),
	}
}

func writeInterpText(w io.Writer, reports []interpReport) error {
	for _, r := range reports {
		var err error
		if r.Interpreter != "" {
			_, err = fmt.Fprintf(w, "%s\t%s\n", r.Binary, r.Interpreter)
		} else {
			_, err = fmt.Fprintf(w, "%s\t-\t%s\n", r.Binary, r.Reason)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
