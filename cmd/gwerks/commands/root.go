// Package commands defines the CLI command structure and flag bindings.
//
// Each command declares its options as a cliopts.Set, so every option gets
// a long name and a one-letter shorthand and required options are checked
// uniformly. Command execution is delegated to the handlers package.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gwerks/gwerks/cmd/gwerks/handlers"
)

// DefaultCatalogPath is used when neither --catalog nor GWERKS_CATALOG is set.
const DefaultCatalogPath = "gwerks-catalog.yaml"

// Root returns the root command for the gwerks CLI.
func Root() *cobra.Command {
	g := &handlers.Globals{}
	var envFile string

	cmd := &cobra.Command{
		Use:           "gwerks",
		Short:         "Bind to, launch and operate named EC2 machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			g.Out = cmd.OutOrStdout()
			g.Err = cmd.ErrOrStderr()
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			if g.CatalogPath == "" {
				g.CatalogPath = catalogPath()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.Environment, "env", "", "Runtime environment: Dev, Test or Live (default from RUNTIME_ENV)")
	flags.StringVar(&g.Region, "region", "", "AWS region: us-east-1 or us-east-2 (default from RUNTIME_REG)")
	flags.StringVar(&g.Profile, "profile", "", "AWS shared-config profile (default from AWS_PROFILE)")
	flags.StringVar(&g.CatalogPath, "catalog", "", "Path to the catalog file (default from GWERKS_CATALOG or "+DefaultCatalogPath+")")
	flags.StringVar(&g.LogFormat, "log-format", handlers.LogFormatConsole, "Narrative format: console or json")
	flags.StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flags.StringVar(&envFile, "env-file", ".env", "Load environment variables from this file when it exists")

	cmd.AddCommand(Env(g))
	cmd.AddCommand(Bind(g))
	cmd.AddCommand(Launch(g))
	cmd.AddCommand(Describe(g))
	cmd.AddCommand(Start(g))
	cmd.AddCommand(Stop(g))
	cmd.AddCommand(Terminate(g))
	cmd.AddCommand(Protect(g))
	cmd.AddCommand(Run(g))
	cmd.AddCommand(Secret(g))
	cmd.AddCommand(Version())

	return cmd
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is ignored.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func catalogPath() string {
	if p := os.Getenv("GWERKS_CATALOG"); p != "" {
		return p
	}
	return DefaultCatalogPath
}
