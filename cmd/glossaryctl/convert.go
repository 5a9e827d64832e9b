package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/sheet"
)

var (
	convertIn  string
	convertOut string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a glossary workbook to bulk-import CSV",
	Long: `Convert reads the first sheet of an Excel workbook and writes the
glossary import CSV (UTF-8 with BOM).

Examples:
  glossaryctl convert --in XuLy.xlsx --out XuLy_converted.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.OutOrStdout(), cmd.ErrOrStderr(), convertIn, convertOut)
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertIn, "in", "", "Source Excel workbook (e.g. XuLy.xlsx)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Destination CSV (e.g. XuLy_converted.csv)")
	_ = convertCmd.MarkFlagRequired("in")
	_ = convertCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(convertCmd)
}

// runConvert writes the converted workbook at in to out. Input that is not
// an Excel workbook only produces a warning.
func runConvert(stdout, stderr io.Writer, in, out string) error {
	info, err := os.Stat(in)
	if err != nil || info.IsDir() || !sheet.IsSpreadsheet(in) {
		fmt.Fprintln(stderr, "Warning: input is not an Excel file:", in)
		return nil
	}

	records, err := readRecords(in)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := glossary.WriteTable(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(stdout, "Wrote: %s (%d rows)\n", out, len(records))
	return nil
}

// readRecords converts every data row of the workbook at path.
func readRecords(path string) ([]glossary.TargetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := sheet.Read(path, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return glossary.Convert(table.Header, table.Rows)
}
