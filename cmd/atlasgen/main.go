// Command atlasgen builds the navigable atlas tree from exported records and
// serves, diffs and publishes the result.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/atlasgen/internal/config"
	"github.com/dgallion1/atlasgen/internal/importapi"
	"github.com/dgallion1/atlasgen/internal/pipeline"
	"github.com/dgallion1/atlasgen/internal/publish"
)

const (
	Version = "0.1.0"
	appName = "atlasgen"
)

// app carries what every subcommand shares once the root has parsed flags.
type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *slog.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Build the atlas document tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		buildCmd(a),
		serveCmd(a),
		diffCmd(a),
		publishCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func (a *app) init(logOut io.Writer) error {
	a.log = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: parseLevel(a.logLevel)}))
	slog.SetDefault(a.log)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sinks builds the delivery targets enabled by the configuration.
func (a *app) sinks(withImport, withBlob bool) ([]pipeline.Sink, func(), error) {
	var out []pipeline.Sink
	closers := []func(){}
	if withImport {
		if a.cfg.ImportAPIURL == "" {
			return nil, nil, fmt.Errorf("IMPORT_API_URL is not set")
		}
		c := importapi.NewClient(a.cfg.ImportAPIURL, a.cfg.ImportAPIKey)
		out = append(out, c)
		closers = append(closers, c.Close)
	}
	if withBlob {
		p, err := a.publisher()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, p)
	}
	return out, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func (a *app) publisher() (*publish.Publisher, error) {
	if !a.cfg.Blob.Enabled() {
		return nil, fmt.Errorf("BLOB_ENDPOINT is not set")
	}
	store, err := publish.NewS3Store(a.cfg.Blob)
	if err != nil {
		return nil, err
	}
	return publish.NewPublisher(store, a.cfg.DataVersion, a.cfg.KeepBuilds, a.log), nil
}
