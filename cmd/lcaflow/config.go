package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/harunnryd/lcaflow/internal/config"
	"github.com/harunnryd/lcaflow/internal/formatter"
	"github.com/harunnryd/lcaflow/internal/objectstore"
)

const defaultTemplatePath = ".env.lcaflow"

const (
	checkWorkflow   = "workflow"
	checkKB         = "kb"
	checkStorage    = "storage"
	checkExtraction = "extraction"
)

var allChecks = []string{checkWorkflow, checkKB, checkStorage, checkExtraction}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
		Long:  `Show the resolved configuration, the merged MCP service map and the derived workflow profile.`,
	}
	cmd.AddCommand(
		newConfigViewCmd(a),
		newConfigServicesCmd(a),
		newConfigProfileCmd(a),
		newConfigCheckCmd(a),
		newConfigEnvCmd(a),
		newConfigInitCmd(),
	)
	return cmd
}

func addOutputFlag(cmd *cobra.Command, def formatter.OutputFormat) *string {
	return cmd.Flags().StringP("output", "o", string(def), "output format (table, json, yaml)")
}

func render(cmd *cobra.Command, format string, v any) error {
	parsed, err := formatter.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	f, err := formatter.NewFormatterFactory().Create(parsed)
	if err != nil {
		return err
	}
	out, err := f.Format(v)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func newConfigViewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Dump fully resolved configuration",
		Long:  `Display the workflow settings with all defaults applied, secrets masked.`,
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatter.OutputFormatYAML)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := a.settings.Settings()
		if err != nil {
			return err
		}
		return render(cmd, *output, newSettingsView(s))
	}
	return cmd
}

func newConfigServicesCmd(a *app) *cobra.Command {
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Show the merged MCP service map",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatter.OutputFormatJSON)
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print header values unmasked")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := a.settings.Settings()
		if err != nil {
			return err
		}
		services := s.ServiceConfigs()
		if !showSecrets {
			for name, conn := range services {
				services[name] = conn.Redacted()
			}
		}
		return render(cmd, *output, servicesView(services))
	}
	return cmd
}

func newConfigProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the derived workflow profile",
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatter.OutputFormatYAML)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := a.settings.Settings()
		if err != nil {
			return err
		}
		return render(cmd, *output, profileView(s.Profile()))
	}
	return cmd
}

func newConfigCheckCmd(a *app) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration for each service family",
		Long: `Run the configuration builders for the workflow, knowledge base, object
storage and extraction services and report which ones resolve. No network
calls are made.`,
		Args: cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatter.OutputFormatTable)
	cmd.Flags().StringSliceVar(&only, "only", nil, "limit to these checks ("+strings.Join(allChecks, ", ")+")")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		names, err := selectChecks(only)
		if err != nil {
			return err
		}

		report := make(checkReport, 0, len(names))
		var errs []error
		for _, name := range names {
			detail, err := a.runCheck(name)
			result := checkResult{Name: name, Status: "ok", Detail: detail}
			if err != nil {
				result.Status = "failed"
				result.Detail = err.Error()
				errs = append(errs, err)
			}
			report = append(report, result)
		}

		if err := render(cmd, *output, report); err != nil {
			return err
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d checks failed: %w", len(errs), len(names), stderrors.Join(errs...))
		}
		return nil
	}
	return cmd
}

func selectChecks(only []string) ([]string, error) {
	if len(only) == 0 {
		return allChecks, nil
	}
	var names []string
	for _, raw := range only {
		name := strings.ToLower(strings.TrimSpace(raw))
		if !slices.Contains(allChecks, name) {
			return nil, fmt.Errorf("unknown check %q (available: %s)", raw, strings.Join(allChecks, ", "))
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (a *app) runCheck(name string) (string, error) {
	switch name {
	case checkWorkflow:
		s, err := a.settings.Settings()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d MCP services, profile %s", len(s.ServiceConfigs()), s.Profile().Name), nil
	case checkKB:
		kb, err := config.LoadKnowledgeBase(a.snap)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s dataset %s", kb.BaseURL, kb.DatasetID), nil
	case checkStorage:
		cfg, err := config.LoadObjectStore(a.snap)
		if err != nil {
			return "", err
		}
		bucket, err := objectstore.Open(cfg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s bucket %s", bucket.Endpoint(), bucket.Name), nil
	case checkExtraction:
		ext, err := config.LoadExtraction(a.snap)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s timeout %s", ext.URL, ext.RequestTimeout()), nil
	default:
		return "", fmt.Errorf("unknown check %q", name)
	}
}

func newConfigEnvCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "List recognized environment variables",
		Long:  `List every recognized variable with its aliases and which alias currently supplies a value.`,
		Args:  cobra.NoArgs,
	}
	output := addOutputFlag(cmd, formatter.OutputFormatTable)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return render(cmd, *output, newEnvReport(a.snap, config.Groups()))
	}
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an environment template",
		Long:  `Write a commented dotenv template listing every recognized variable (default ` + defaultTemplatePath + `).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultTemplatePath
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			} else if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}

			if err := atomic.WriteFile(path, bytes.NewReader(renderTemplate(config.Groups()))); err != nil {
				return fmt.Errorf("failed to write template to %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Wrote environment template to %s\n", path)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "1. Fill in the required variables")
			fmt.Fprintf(out, "2. Run 'lcaflow --env-file %s config check'\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
