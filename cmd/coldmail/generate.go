package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/form"
	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/progress"
	"github.com/amishk599/coldmail/internal/resume"
)

var (
	genResumePath  string
	genJobDesc     string
	genJobDescFile string
	genContentType string
	genNoProgress  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Submit once and print the generated email",
	Long: "Sends the résumé and job description to the generation service and prints the email to stdout. " +
		"Failures are printed to stderr and exit with status 1.",
	Example: `  coldmail generate --resume resume.pdf --job-desc "Senior backend engineer role at Acme"
  pbpaste | coldmail generate -r resume.pdf -f -`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genResumePath, "resume", "r", "", "path to the résumé PDF")
	generateCmd.Flags().StringVarP(&genJobDesc, "job-desc", "j", "", "job description text")
	generateCmd.Flags().StringVarP(&genJobDescFile, "job-desc-file", "f", "", "read the job description from a file (- for stdin)")
	generateCmd.Flags().StringVar(&genContentType, "content-type", "", "declared résumé media type (default: detected from content)")
	generateCmd.Flags().BoolVar(&genNoProgress, "no-progress", false, "do not draw the upload progress bar")
	generateCmd.MarkFlagsMutuallyExclusive("job-desc", "job-desc-file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	jobDesc, err := readJobDescription(genJobDesc, genJobDescFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var reporter progress.Reporter = progress.Silent{}
	if !genNoProgress {
		reporter = progress.ForStderr()
	}

	ctrl := setupController(cfg, reporter, logger)
	ctrl.OnChange(func(s form.State) {
		logger.Debug("submission state", "status", s.Status.String(), "resume", s.FileLabel)
	})

	// An unset --resume is left to the form's own validation.
	if genResumePath != "" {
		r, err := resume.Load(genResumePath, genContentType)
		if err != nil {
			return err
		}
		ctrl.SetResumeFile(r)
	}
	ctrl.SetJobDescription(jobDesc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := ctrl.Submit(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), state.ErrorMessage)
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			logger.Debug("generation failed", "error", err)
		}
		os.Exit(1)
	}

	fmt.Fprintln(cmd.OutOrStdout(), state.Result)
	return nil
}

// readJobDescription takes the text verbatim from the flag, or from path
// ("-" reads stdin). No trimming is applied.
func readJobDescription(text, path string, stdin io.Reader) (string, error) {
	if path == "" {
		return text, nil
	}
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read job description from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read job description: %w", err)
	}
	return string(data), nil
}
