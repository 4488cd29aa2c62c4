package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/spreadsheet"
)

type options struct {
	logLevel string
	maxBytes int64
	sheet    string
}

type filterOptions struct {
	primary   string
	columns   string
	opType    string
	operation string
	out       string
	format    string
	csvBOM    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sheetfilter",
		Short: "Inspect and filter xlsx and csv files",
		Long: `sheetfilter reads an xlsx or csv file from a path or http(s) URL,
lists its sheets, prints them, or keeps rows by null/not-null checks and
writes the result as xlsx or csv.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().Int64Var(&opts.maxBytes, "max-bytes", 50<<20, "Largest file to read")

	root.AddCommand(newSheetsCmd(opts), newShowCmd(opts), newFilterCmd(opts))
	return root
}

func newSheetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file>",
		Short: "List sheets with row and column counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := readWorkbook(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range core.Summarize(wb) {
				fmt.Fprintf(out, "%s\t%d rows\t%d columns\n", s.Name, s.RowCount, s.Columns)
			}
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a sheet as tab-separated text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), core.Render(sheet))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet to read (default: first sheet)")
	return cmd
}

func newFilterCmd(opts *options) *cobra.Command {
	fo := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "filter <file>",
		Short: "Keep rows by null checks and project the checked columns",
		Example: `  sheetfilter filter book.xlsx --primary id --columns "email, phone" --type or --op null
  sheetfilter filter https://host/data.csv --primary id --columns city --out cities.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := core.ParseFilterInput(core.FilterInput{
				PrimaryColumn:    fo.primary,
				OperationColumns: fo.columns,
				OperationType:    fo.opType,
				Operation:        fo.operation,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", core.MapError(err).Message, err)
			}

			sheet, err := readSheet(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			view := core.Filter(sheet, spec)
			slog.Info("filter applied", "filter", spec.String(), "rows", view.Len(), "of", sheet.Len())

			if fo.out == "" {
				printTable(cmd.OutOrStdout(), core.Render(view))
				return nil
			}
			return writeExport(view, fo)
		},
	}
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet to read (default: first sheet)")
	cmd.Flags().StringVar(&fo.primary, "primary", "", "Primary column (required)")
	cmd.Flags().StringVar(&fo.columns, "columns", "", "Comma-separated operation columns (required)")
	cmd.Flags().StringVar(&fo.opType, "type", "and", "How column checks combine: and, or")
	cmd.Flags().StringVar(&fo.operation, "op", "notnull", "Per-column check: null, notnull")
	cmd.Flags().StringVarP(&fo.out, "out", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().StringVar(&fo.format, "format", "", "Output format: xlsx, csv (default: from --out extension, else xlsx)")
	cmd.Flags().BoolVar(&fo.csvBOM, "csv-bom", true, "Prefix csv output with a UTF-8 byte order mark")
	_ = cmd.MarkFlagRequired("primary")
	_ = cmd.MarkFlagRequired("columns")
	return cmd
}

func readWorkbook(ctx context.Context, opts *options, location string) (*core.Workbook, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fetcher := spreadsheet.NewFetcher(spreadsheet.FetchConfig{
		MaxBytes:     opts.maxBytes,
		AllowLocal:   true,
		AllowPrivate: true,
	})
	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	wb, err := spreadsheet.NewCodec(false).Decode(location, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	if wb.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", location, core.ErrNoSheets)
	}
	return wb, nil
}

func readSheet(ctx context.Context, opts *options, location string) (*core.Sheet, error) {
	wb, err := readWorkbook(ctx, opts, location)
	if err != nil {
		return nil, err
	}
	if opts.sheet == "" {
		return wb.First(), nil
	}
	sheet, err := wb.Sheet(opts.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w (have %s)", err, strings.Join(wb.SheetNames(), ", "))
	}
	return sheet, nil
}

func printTable(w io.Writer, t core.DisplayTable) {
	if t.NoData {
		fmt.Fprintln(w, "No data available")
		return
	}
	fmt.Fprintln(w, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

// exportFormat picks --format, then the --out extension, then xlsx.
func exportFormat(fo *filterOptions) (core.ExportFormat, error) {
	if fo.format != "" {
		return core.ParseExportFormat(fo.format)
	}
	if ext := strings.TrimPrefix(filepath.Ext(fo.out), "."); ext != "" {
		if f, err := core.ParseExportFormat(ext); err == nil {
			return f, nil
		}
	}
	return core.FormatXLSX, nil
}

func writeExport(view *core.Sheet, fo *filterOptions) error {
	format, err := exportFormat(fo)
	if err != nil {
		return err
	}

	f, err := os.Create(fo.out)
	if err != nil {
		return err
	}
	if err := spreadsheet.NewCodec(fo.csvBOM).Encode(f, view, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", fo.out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("export written", "file", fo.out, "format", format, "rows", view.Len())
	return nil
}
