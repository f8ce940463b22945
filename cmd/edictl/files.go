package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Store a local EDI file and record its receipt",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file-id]",
	Short: "Run the structural check on a stored file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var parseCmd = &cobra.Command{
	Use:   "parse [file-id]",
	Short: "Parse a stored file without validating it first",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var processCmd = &cobra.Command{
	Use:   "process [file-id]",
	Short: "Validate and parse a stored file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

var ackCmd = &cobra.Command{
	Use:   "ack [transaction-id]",
	Short: "Generate the acknowledgment for a parsed transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runAck,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file-id]",
	Short: "Show a stored file and its transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var (
	ingestSource  string
	ingestAccount string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", string(domain.SourceManual), "Intake channel (SFTP, API or Manual)")
	ingestCmd.Flags().StringVar(&ingestAccount, "account", "", "Owning account id")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	source, err := domain.ParseSource(ingestSource)
	if err != nil {
		return err
	}

	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	file, err := a.Service.Ingest(ctx, f, filepath.Base(args[0]), source, ingestAccount)
	if err != nil {
		return err
	}
	return printJSON(cmd, file)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.Repo.GetFile(ctx, args[0])
	if err != nil {
		return err
	}
	valid := a.Service.ValidateStructure(ctx, file)
	return printJSON(cmd, map[string]any{
		"file_id":       file.ID,
		"is_valid":      valid,
		"status":        file.Status,
		"error_message": file.ErrorMessage,
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.Repo.GetFile(ctx, args[0])
	if err != nil {
		return err
	}
	tx, err := a.Service.Parse(ctx, file)
	if err != nil {
		return err
	}
	return printJSON(cmd, tx)
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.Repo.GetFile(ctx, args[0])
	if err != nil {
		return err
	}
	tx, err := a.Service.Process(ctx, file)
	if errors.Is(err, domain.ErrValidationFailed) {
		return fmt.Errorf("file %s failed validation: %s", file.ID, file.ErrorMessage)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd, tx)
}

func runAck(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tx, err := a.Repo.GetTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	if !a.Service.Acknowledge(ctx, tx) {
		return fmt.Errorf("acknowledgment for transaction %s failed", tx.ID)
	}
	return printJSON(cmd, tx)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.Repo.GetFile(ctx, args[0])
	if err != nil {
		return err
	}
	txs, err := a.Repo.ListTransactions(ctx, store.TransactionFilter{FileID: file.ID})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== File ===")
	fmt.Fprintf(out, "ID:          %s\n", file.ID)
	fmt.Fprintf(out, "Name:        %s\n", file.FileName)
	fmt.Fprintf(out, "Type:        %s %s\n", file.Dialect, file.TransactionType)
	fmt.Fprintf(out, "Source:      %s\n", file.Source)
	fmt.Fprintf(out, "Status:      %s\n", file.Status)
	if file.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:       %s\n", file.ErrorMessage)
	}
	fmt.Fprintf(out, "Received:    %s\n", file.ReceivedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Location:    %s\n", file.StorageLocation)
	fmt.Fprintf(out, "Size:        %d bytes\n", file.SizeBytes)

	fmt.Fprintf(out, "\n=== Transactions (%d) ===\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintf(out, "%s  %-5s  %-14s  %s\n", tx.ID, tx.TransactionType, tx.Status, tx.PartnerID)
	}
	return nil
}
