package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/edi"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Classify and validate a local file without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported transaction types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, t := range edi.DefaultRegistry().All() {
			cmd.Printf("%-4s  %-22s  %s\n", t.X12Code, strings.Join(t.EdifactNames, ","), t.DocumentName)
		}
	},
}

var segmentIDs = map[domain.Dialect][]string{
	domain.DialectX12:     {"ISA", "GS", "ST"},
	domain.DialectEDIFACT: {"UNB", "UNH"},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(typesCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	name := filepath.Base(args[0])
	registry := edi.DefaultRegistry()
	dialect, code := edi.NewClassifier(registry).Classify(name)
	res := edi.NewValidator(registry).Validate(dialect, string(data))

	cmd.Printf("File:     %s\n", name)
	cmd.Printf("Type:     %s %s (%s)\n", dialect, code, registry.DocumentName(code))
	if res.Valid {
		cmd.Println("Valid:    yes")
	} else {
		cmd.Println("Valid:    no")
		for _, e := range res.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}

	for _, id := range segmentIDs[dialect] {
		if seg, ok := edi.ExtractSegment(string(data), id); ok {
			cmd.Printf("%-4s      %s\n", id, seg)
		}
	}

	if !res.Valid {
		return fmt.Errorf("%s failed validation", name)
	}
	return nil
}
