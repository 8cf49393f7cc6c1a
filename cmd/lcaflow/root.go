package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harunnryd/lcaflow/internal/config"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
	"github.com/harunnryd/lcaflow/internal/logger"
)

// flagVars maps named flags onto the variables they override.
var flagVars = map[string]string{
	"log-level":        config.FieldLogLevel.Env(),
	"workflow-profile": config.FieldWorkflowProfile.Env(),
	"max-concurrency":  config.FieldMaxConcurrency.Env(),
	"max-retries":      config.FieldMaxRetries.Env(),
	"cache-dir":        config.FieldCacheDir.Env(),
	"artifacts-dir":    config.FieldArtifactsDir.Env(),
}

type rootOptions struct {
	configFile string
	envFiles   []string
	sets       []string
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	snap     *environ.Snapshot
	settings *config.Provider
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:   "lcaflow",
		Short: "LCA workflow configuration",
		Long: `lcaflow resolves the configuration of the LCA document workflow from
environment variables, dotenv and YAML files, and validates it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML file of environment variables")
	pf.StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv file to load (repeatable)")
	pf.StringArrayVar(&opts.sets, "set", nil, "override a variable as NAME=VALUE (repeatable)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("workflow-profile", "", "workflow profile (default, batch, debug)")
	pf.Int("max-concurrency", 0, "maximum concurrency")
	pf.Int("max-retries", 0, "maximum retries")
	pf.String("cache-dir", "", "cache directory")
	pf.String("artifacts-dir", "", "artifacts directory")

	root.AddCommand(newConfigCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	overrides, err := environ.ParseAssignments(opts.sets)
	if err != nil {
		return err
	}

	snap, err := environ.Capture(
		environ.WithYAMLFile(opts.configFile),
		environ.WithDotenv(opts.envFiles...),
		environ.WithOverrides(overrides),
		environ.WithFlags(cmd.Flags(), flagVars),
	)
	if err != nil {
		return errors.Wrap(err, "failed to read environment")
	}

	a.snap = snap
	a.settings = config.NewProvider(config.SnapshotLoader(snap))

	level, _ := snap.First(config.FieldLogLevel.Aliases...)
	logger.Setup(level)
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}
