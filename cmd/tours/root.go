package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// envFile is loaded into the environment before the configuration is read.
var envFile string

// NewRootCmd creates the root command for the tours CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tours",
		Short:         "Natours tour booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFile(envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before reading config (skipped when missing)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSweepResetsCmd())
	cmd.AddCommand(NewSeedToursCmd())

	return cmd
}

// loadEnvFile applies path to the environment without overriding variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return errors.Wrapf(godotenv.Load(path), "load %s", path)
}
