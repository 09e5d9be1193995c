package cmd

import (
	"github.com/MeKo-Tech/pdfqr/internal/batch"
	"github.com/MeKo-Tech/pdfqr/internal/config"
	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/spf13/cobra"
)

type batchOptions struct {
	include  []string
	exclude  []string
	region   string
	all      bool
	progress bool
	stats    bool
}

func newBatchCommand(a *app) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <dir|file>...",
		Short: "Extract QR codes from many images and PDFs in parallel",
		Long: `Discover images and PDFs under the given paths and extract QR codes from
each using a pool of workers. Results are reported in discovery order.

Examples:
  pdfqr batch ./inbox
  pdfqr batch ./inbox --recursive --workers 8 --format json -o results.json
  pdfqr batch scans/ --include "*.pdf" --exclude "*draft*" --continue-on-error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := utils.ParseRegion(opts.region)
			if err != nil {
				return err
			}
			readerCfg, err := a.cfg.ToReaderConfig()
			if err != nil {
				return err
			}

			cfg := &batch.Config{
				Reader:          readerCfg,
				Region:          region,
				All:             opts.all,
				Workers:         a.cfg.Batch.Workers,
				ContinueOnError: a.cfg.Batch.ContinueOnError,
				Recursive:       a.cfg.Batch.Recursive,
				IncludePatterns: opts.include,
				ExcludePatterns: opts.exclude,
			}
			if opts.progress {
				cfg.Progress = batch.NewConsoleProgress(cmd.ErrOrStderr(), "Processing: ")
			}

			res, err := batch.ProcessBatch(cmd.Context(), args, cfg)
			if err != nil {
				return err
			}
			if err := res.SaveResults(cmd.OutOrStdout(), a.cfg.Output.Format, a.cfg.Output.File); err != nil {
				return err
			}
			if opts.stats {
				res.PrintStats(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	def := config.DefaultConfig()
	cmd.Flags().IntP("workers", "w", def.Batch.Workers, "number of parallel workers")
	cmd.Flags().BoolP("recursive", "r", def.Batch.Recursive, "descend into subdirectories")
	cmd.Flags().Bool("continue-on-error", def.Batch.ContinueOnError, "report failing files instead of aborting")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "only process files matching these globs")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "skip files matching these globs")
	cmd.Flags().StringVar(&opts.region, "region", "", "crop rendered PDF pages to x,y,w,h before decoding")
	cmd.Flags().BoolVar(&opts.all, "all", false, "report every code on every PDF page")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show progress on stderr")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print processing statistics on stderr")
	addReaderFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}
