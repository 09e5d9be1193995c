package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/spf13/cobra"
)

func newImageCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <file>...",
		Short: "Decode QR codes in image files",
		Long: `Decode the QR code in each image file. Images are decoded as they are;
no background normalization or cropping is applied.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.

Examples:
  pdfqr image ticket.png
  pdfqr image a.png b.jpg --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readerCfg, err := a.cfg.ToReaderConfig()
			if err != nil {
				return err
			}
			reader, err := qrreader.New(readerCfg)
			if err != nil {
				return err
			}

			out := &reportWriter{format: a.cfg.Output.Format, multi: len(args) > 1}
			for _, path := range args {
				res, err := reader.ReadImageFile(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", path, err)
				}
				if err := out.add(singleReport(path, res, false)); err != nil {
					return err
				}
			}
			return out.flush(cmd.OutOrStdout(), a.cfg.Output.File)
		},
	}

	addReaderFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}
