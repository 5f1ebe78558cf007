// Command mapsubmit runs the upload form flow from a terminal: detect the
// header row, auto-map columns, apply overrides and submit the workbook.
//
// Usage:
//
//	mapsubmit products.xlsx --map colorName=D --manual-brand Gucci --dry-run
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"scraper-admin/internal/config"
	"scraper-admin/internal/models"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/spf13/cobra"
)

var (
	headerRow   int
	mappings    []string
	manualBrand string
	sendToEmail string
	backendURL  string
	dryRun      bool
)

var rootCmd = &cobra.Command{
	Use:   "mapsubmit <workbook.xlsx>",
	Short: "Map spreadsheet columns and submit the workbook to the scraping backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapSubmit,
}

func init() {
	rootCmd.Flags().IntVar(&headerRow, "header-row", -1, "zero-based header row (default: auto detect)")
	rootCmd.Flags().StringSliceVar(&mappings, "map", nil, "field=column overrides, column as letter or zero-based index (repeatable)")
	rootCmd.Flags().StringVar(&manualBrand, "manual-brand", "", "brand applied to every row when no brand column exists")
	rootCmd.Flags().StringVar(&sendToEmail, "email", "", "address notified when the job finishes")
	rootCmd.Flags().StringVar(&backendURL, "backend", "", "scraping backend base url (default: SCRAPER_BACKEND_URL)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the encoded form without submitting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMapSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if backendURL == "" {
		backendURL = cfg.ScraperBackendURL
	}

	path := args[0]
	if !service.AllowedExtension(path) {
		return service.ErrInvalidFileType
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := utils.GetLogger()
	mapping := service.NewMappingService(
		repository.NewMemoryMappingSessionStore(),
		service.NewExcelService(),
		service.NewSubmissionClient(backendURL, cfg.SubmitTimeout, logger),
		nil,
		service.MappingOptions{
			PreviewRows:        cfg.PreviewRows,
			HeaderScanRows:     cfg.HeaderScanRows,
			DefaultSendToEmail: cfg.DefaultSendToEmail,
			KeepFiles:          true,
		},
		logger,
	)

	code := service.NewSessionCode()
	session, err := mapping.Stage(ctx, code, 0, filepath.Base(path), path, sendToEmail)
	if err != nil {
		return err
	}

	if headerRow >= 0 {
		if session, err = mapping.SelectHeader(ctx, code, headerRow); err != nil {
			return err
		}
	}
	if session.HeaderRowIndex == nil {
		return fmt.Errorf("no header row found in the first %d rows, pass --header-row", cfg.HeaderScanRows)
	}

	for _, m := range mappings {
		field, col, err := parseMapping(m)
		if err != nil {
			return err
		}
		if session, err = mapping.AssignColumn(ctx, code, col, field); err != nil {
			return err
		}
	}

	if manualBrand != "" {
		if session, err = mapping.ApplyManualBrand(ctx, code, manualBrand); err != nil {
			return err
		}
	}

	printSummary(cmd, session)

	if dryRun {
		form, err := service.EncodeSubmission(session, firstNonEmpty(sendToEmail, cfg.DefaultSendToEmail))
		if err != nil {
			return err
		}
		return printJSON(cmd, form)
	}

	result, err := mapping.Submit(ctx, code, sendToEmail)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func parseMapping(raw string) (models.Field, int, error) {
	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid --map %q, expected field=column", raw)
	}
	field := models.Field(strings.TrimSpace(parts[0]))
	if !field.Valid() {
		return "", 0, fmt.Errorf("unknown field %q", parts[0])
	}
	col, err := service.ColumnIndex(parts[1])
	if err != nil {
		return "", 0, err
	}
	return field, col, nil
}

func printSummary(cmd *cobra.Command, session *models.MappingSession) {
	out := cmd.OutOrStdout()
	summary := service.Summarize(session)
	fmt.Fprintf(out, "Header row: %d\n", *session.HeaderRowIndex)
	for _, f := range models.AllFields {
		letter, ok := summary.ColumnLetters[f]
		if !ok {
			fmt.Fprintf(out, "  %-10s -\n", f)
			continue
		}
		fmt.Fprintf(out, "  %-10s %-6s %s\n", f, letter, summary.MappedColumns[f])
	}
	if !summary.RequiredSatisfied {
		fmt.Fprintf(out, "Missing required: %v\n", summary.MissingFields)
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
