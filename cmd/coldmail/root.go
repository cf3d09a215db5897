package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/config"
	"github.com/amishk599/coldmail/internal/form"
	"github.com/amishk599/coldmail/internal/progress"
	"github.com/amishk599/coldmail/internal/service"
)

// defaultServiceURL is the generation service address, set at build time:
//
//	go build -ldflags "-X main.defaultServiceURL=https://coldmail.example.com" ./cmd/coldmail
var defaultServiceURL = "http://localhost:8000"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "coldmail",
	Short: "Cold Email Synthesizer: résumé and job description in, cold email out",
	Long: "coldmail sends a PDF résumé and a job description to the email generation service " +
		"and shows the drafted cold email. With no subcommand it opens the interactive form.",
	SilenceUsage:      true,
	PersistentPreRunE: loadDotEnv,
	RunE:              runForm,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: COLDMAIL_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadDotEnv loads ./.env into the environment when it exists, so config
// files can reference ${VARS} defined there.
func loadDotEnv(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > COLDMAIL_CONFIG env var > "./config.yaml".
// Only an explicitly named file has to exist.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path, defaultServiceURL)
	}
	if env := os.Getenv("COLDMAIL_CONFIG"); env != "" {
		return config.Load(env, defaultServiceURL)
	}
	return config.LoadOptional("config.yaml", defaultServiceURL)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func newServiceClient(cfg *config.Config, reporter progress.Reporter, logger *slog.Logger) *service.Client {
	httpClient := &http.Client{Timeout: cfg.Service.Timeout}
	return service.NewClient(cfg.Service.BaseURL, httpClient, reporter, logger)
}

func setupController(cfg *config.Config, reporter progress.Reporter, logger *slog.Logger) *form.Controller {
	client := newServiceClient(cfg, reporter, logger)
	logger.Debug("service configured", "endpoint", client.Endpoint(), "timeout", cfg.Service.Timeout.String())
	return form.NewController(client, logger)
}
