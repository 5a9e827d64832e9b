package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/config"
	"github.com/JonMunkholm/glossary/internal/service"
)

var (
	importIn       string
	importGlossary string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert a workbook and create its terms in the catalog",
	Long: `Import converts the workbook and creates one glossary term per row
through the catalog API. Rows are independent: a failed row is reported and
the rest are still imported.

Examples:
  glossaryctl import --in XuLy.xlsx
  glossaryctl import --in XuLy.xlsx --glossary Finance`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if importGlossary != "" {
			cfg.Catalog.Glossary = importGlossary
		}

		importer, err := service.NewImporter(cfg.Catalog)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runImport(ctx, cmd.OutOrStdout(), service.New(cfg.Upload, importer, nil), importIn)
	},
}

func init() {
	importCmd.Flags().StringVar(&importIn, "in", "", "Source Excel workbook")
	importCmd.Flags().StringVar(&importGlossary, "glossary", "", "Target glossary (overrides CATALOG_GLOSSARY)")
	_ = importCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(importCmd)
}

// runImport imports the workbook at in and prints one line per row.
func runImport(ctx context.Context, stdout io.Writer, svc *service.Service, in string) error {
	if !svc.ImportEnabled() {
		return catalog.ErrNotConfigured
	}

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := svc.Import(ctx, in, f)
	if err != nil {
		return errors.New(service.FormatUserError(err))
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tNAME\tSTATUS\tDETAIL")
	for _, st := range res.Rows {
		status, detail := "ok", st.TermID
		if !st.OK {
			status, detail = "failed", st.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Row, st.Name, status, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nGlossary %s: %d imported, %d failed\n", res.Glossary, res.OK, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed", res.Failed, len(res.Rows))
	}
	return nil
}
