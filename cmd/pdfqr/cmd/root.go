// Package cmd implements the pdfqr command line interface.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/pdfqr/internal/config"
	"github.com/MeKo-Tech/pdfqr/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to configuration keys. Flags are bound
// only on the commands that define them.
var flagKeys = map[string]string{
	"verbose":           "verbose",
	"log-level":         "log_level",
	"page-width":        "reader.page_width",
	"page-height":       "reader.page_height",
	"background":        "reader.background",
	"renderer":          "reader.renderer",
	"try-harder":        "reader.try_harder",
	"format":            "output.format",
	"output":            "output.file",
	"host":              "server.host",
	"port":              "server.port",
	"cors-origin":       "server.cors_origin",
	"max-upload-size":   "server.max_upload_mb",
	"timeout":           "server.timeout_sec",
	"shutdown-timeout":  "server.shutdown_timeout",
	"rate-limit":        "server.rate_limit_enabled",
	"requests-per-min":  "server.requests_per_minute",
	"requests-per-hour": "server.requests_per_hour",
	"max-requests-day":  "server.max_requests_per_day",
	"max-data-day":      "server.max_data_per_day",
	"workers":           "batch.workers",
	"recursive":         "batch.recursive",
	"continue-on-error": "batch.continue_on_error",
}

// app is the per-invocation state shared by all subcommands.
type app struct {
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree. Each tree owns its own
// viper instance, so repeated executions in one process do not share state.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pdfqr",
		Short: "Extract QR codes from images and PDF documents",
		Long: `pdfqr finds and decodes QR codes in raster images and in the pages of
PDF documents. Pages are rendered at a configurable size and scanned in order;
the first payload found is reported.

Examples:
  pdfqr image ticket.png
  pdfqr pdf invoice.pdf --format json
  pdfqr pdf scan.pdf --page 2 --region 0,0,540,960
  pdfqr batch ./inbox --recursive --workers 8
  pdfqr serve --port 8080`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/pdfqr, /etc/pdfqr)")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newImageCommand(a),
		newPDFCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
	)
	return root
}

// Execute runs the CLI and exits with status 1 on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

// init loads configuration for the executing command and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	v := viper.New()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
	a.loader = config.NewLoaderWithViper(v)

	var err error
	if a.cfgFile != "" {
		a.cfg, err = a.loader.LoadWithFile(a.cfgFile)
	} else {
		a.cfg, err = a.loader.Load()
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), a.cfg))
	return nil
}

// newLogger builds the JSON logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// addReaderFlags registers the flags shared by commands that decode.
func addReaderFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().Int("page-width", def.Reader.PageWidth, "raster width each PDF page is fitted into")
	cmd.Flags().Int("page-height", def.Reader.PageHeight, "raster height each PDF page is fitted into")
	cmd.Flags().String("background", def.Reader.Background, "background color for transparent page areas (hex)")
	cmd.Flags().String("renderer", def.Reader.Renderer, "PDF renderer: fitz or embedded")
	cmd.Flags().Bool("try-harder", def.Reader.TryHarder, "spend more time searching for codes")
}

// addOutputFlags registers --format and --output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format: text or json")
	cmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
}
