package main

import (
	"os"

	"github.com/isseis/go-safe-ldd/internal/config"
	"github.com/isseis/go-safe-ldd/internal/execenv"
	"github.com/spf13/cobra"
)

// execFunc replaces the process; tests swap it out.
var execFunc = execenv.Exec

func newExecCmd(a *app) *cobra.Command {
	var (
		envEntries []string
		inheritEnv bool
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args...]",
		Short: "Replace ldlist with a command running in a given environment",
		Long: `Exec replaces the ldlist process with command, searching PATH when the
name has no slash. The environment is exactly the --env entries unless
--inherit-env is set, in which case they are appended to the current one.`,
		Args: requireArgs(1, "command"),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, entry := range envEntries {
				if err := config.ValidateEnvEntry(entry); err != nil {
					return &usageError{err: err}
				}
			}

			env := make([]string, 0, len(envEntries))
			if inheritEnv {
				env = append(env, os.Environ()...)
			}
			env = append(env, envEntries...)

			a.logger.Debug("Replacing process", "command", args[0], "env_count", len(env))
			return execFunc(args[0], args[1:], env)
		},
	}
	// Flags after the command name belong to the command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringArrayVar(&envEntries, "env", nil, "Environment entry KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&inheritEnv, "inherit-env", false, "Start from the current environment")
	return cmd
}
