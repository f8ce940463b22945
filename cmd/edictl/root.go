package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvloznov/edi-processor/internal/app"
	"github.com/dvloznov/edi-processor/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "edictl",
	Short: "Work with EDI X12 and EDIFACT documents",
	Long: `edictl ingests EDI documents into the configured stores, runs the structural
check and parser on stored files, and inspects local files without storing them.

Storage commands use the backends from --config or EDI_* environment variables.
The default in-memory backends do not persist between invocations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("EDI_CONFIG"), "Path to config file (or set EDI_CONFIG env)")
}

// openApp loads configuration and opens the backends for a storage command.
func openApp(cmd *cobra.Command) (*app.App, context.Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, a.Context(cmd.Context()), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
