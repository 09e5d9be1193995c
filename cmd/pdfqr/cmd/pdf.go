package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/MeKo-Tech/pdfqr/internal/raster"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/spf13/cobra"
)

// pdfOptions holds the flags of the pdf command.
type pdfOptions struct {
	page          int
	pages         string
	region        string
	all           bool
	password      string
	ownerPassword string
}

func newPDFCommand(a *app) *cobra.Command {
	opts := &pdfOptions{}

	cmd := &cobra.Command{
		Use:   "pdf <file>...",
		Short: "Extract QR codes from PDF documents",
		Long: `Render the pages of each PDF and report the first QR code found.

Pages are scanned in order and scanning stops at the first page with a
non-empty payload. --page and --pages restrict the scan; page numbers on
the command line and in text output start at 1, JSON output uses
zero-based page indices. --region crops every rendered page to x,y,w,h
in raster pixels before decoding.

Examples:
  pdfqr pdf invoice.pdf
  pdfqr pdf invoice.pdf --page 2
  pdfqr pdf report.pdf --pages 1-3,7 --format json
  pdfqr pdf tickets.pdf --all
  pdfqr pdf locked.pdf --password secret`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageSet := cmd.Flags().Changed("page")
			pagesSet := cmd.Flags().Changed("pages")
			if opts.all && (pageSet || pagesSet) {
				return errors.New("--all cannot be combined with --page or --pages")
			}
			if pageSet && pagesSet {
				return errors.New("--page and --pages are mutually exclusive")
			}
			if pageSet && opts.page < 1 {
				return fmt.Errorf("invalid page %d: pages start at 1", opts.page)
			}

			region, err := utils.ParseRegion(opts.region)
			if err != nil {
				return err
			}
			pages, err := raster.ParsePageSelection(opts.pages)
			if err != nil {
				return err
			}
			if pageSet {
				pages = []int{opts.page - 1}
			}

			readerCfg, err := a.cfg.ToReaderConfig()
			if err != nil {
				return err
			}
			readerCfg.Credentials = qrreader.Credentials{UserPassword: opts.password, OwnerPassword: opts.ownerPassword}
			if readerCfg.Credentials.OwnerPassword == "" {
				readerCfg.Credentials.OwnerPassword = opts.password
			}
			reader, err := qrreader.New(readerCfg)
			if err != nil {
				return err
			}

			out := &reportWriter{format: a.cfg.Output.Format, multi: len(args) > 1}
			for _, path := range args {
				report, err := scanPDF(cmd.Context(), reader, path, pages, region, opts.all)
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", path, userPageError(err))
				}
				if err := out.add(report); err != nil {
					return err
				}
			}
			return out.flush(cmd.OutOrStdout(), a.cfg.Output.File)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 0, "scan only this page (1-based)")
	cmd.Flags().StringVar(&opts.pages, "pages", "", "scan only these pages, e.g. 1-3,5 (1-based)")
	cmd.Flags().StringVar(&opts.region, "region", "", "crop rendered pages to x,y,w,h before decoding")
	cmd.Flags().BoolVar(&opts.all, "all", false, "report every code on every page")
	cmd.Flags().StringVar(&opts.password, "password", "", "password for encrypted PDFs")
	cmd.Flags().StringVar(&opts.ownerPassword, "owner-password", "", "owner password for encrypted PDFs (defaults to --password)")
	addReaderFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}

func scanPDF(ctx context.Context, reader *qrreader.Reader, path string, pages []int,
	region image.Rectangle, all bool,
) (fileReport, error) {
	if all {
		hits, err := reader.ScanPDFFile(ctx, path, region)
		if err != nil {
			return fileReport{}, err
		}
		return multiReport(path, hits), nil
	}

	if len(pages) == 0 {
		res, err := reader.ReadPDFFile(ctx, path, region)
		if err != nil {
			return fileReport{}, err
		}
		return singleReport(path, res, true), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return fileReport{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	res, err := reader.ReadPDFPages(ctx, data, pages, region)
	if err != nil {
		return fileReport{}, err
	}
	return singleReport(path, res, true), nil
}

// cliPageError renders a zero-based *raster.PageRangeError with the 1-based
// page numbers the command line uses.
type cliPageError struct {
	*raster.PageRangeError
}

func (e cliPageError) Error() string {
	return fmt.Sprintf("page %d is out of range: document has %d page(s)", e.Page+1, e.Count)
}

func (e cliPageError) Unwrap() error { return e.PageRangeError }

func userPageError(err error) error {
	var rangeErr *raster.PageRangeError
	if errors.As(err, &rangeErr) {
		return cliPageError{rangeErr}
	}
	return err
}
