package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/progress"
	"github.com/amishk599/coldmail/internal/resume"
	"github.com/amishk599/coldmail/internal/tui"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Open the interactive form (TUI)",
	Long:  "Pick a résumé, paste the job description, and generate the email in a terminal form.",
	RunE:  runForm,
}

func init() {
	rootCmd.AddCommand(formCmd)
}

func runForm(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive form needs a terminal; use `coldmail generate` in scripts")
	}

	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The form runs on the alt screen and any log output corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := setupController(cfg, progress.Silent{}, silentLogger)

	return tui.RunForm(ctrl, cfg.UI.StartDir, loadPickedResume)
}

// loadPickedResume detects the media type from content; the picker has no
// way to declare one.
func loadPickedResume(path string) (*model.Resume, error) {
	return resume.Load(path, "")
}
