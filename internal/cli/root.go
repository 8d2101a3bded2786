package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pharmadoc/config"
	"pharmadoc/internal/observability"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	tracer   *observability.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:   "pharmadoc",
	Short: "Pharmaceutical document QA - Index leaflets and answer questions with sources",
	Long: `pharmadoc indexes pharmaceutical documents (PDF and text), retrieves the
passages most similar to a question, and answers from those passages only,
citing the source file and page of every passage used.

Example usage:
  pharmadoc build ./leaflets                                   # Build the index
  pharmadoc ask -q "What is the recommended dosage for Ibuprofen?"
  pharmadoc query -q "maximum daily dose" -k 8                 # Inspect retrieval
  pharmadoc pack -q "contraindications" -o prompt.txt          # Render the prompt`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// .env is optional
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		slog.SetDefault(newLogger(cfg.Logging.Level))

		tracer, err = observability.InitTracing(cmd.Context(), &observability.TracingConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			OTLPEndpoint:   cfg.Tracing.Endpoint,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		return nil
	},
}

var version = "dev"

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	shutdownTracing()
	if err != nil {
		os.Exit(1)
	}
}

// shutdownTracing flushes spans, including those of a failed command.
func shutdownTracing() {
	if tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracer.Shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pharmadoc.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory holding .pharmadoc (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")
}

// newLogger writes text logs to stderr so stdout stays parseable.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
