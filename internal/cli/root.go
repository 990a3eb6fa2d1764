// Package cli wires the sbx commands.
package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/config"
	"github.com/vytor/sbx/internal/db"
	"github.com/vytor/sbx/internal/logger"
	"github.com/vytor/sbx/internal/repository/sqlite"
	"github.com/vytor/sbx/internal/services"
)

// ExitError ends the program with Code. Its message has already been shown.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

func failed() error { return &ExitError{Code: -1} }

type app struct {
	cfg        config.Config
	loadConfig func() config.Config
	now        clock.Func
	log        *logger.Logger
}

// NewRootCmd builds the sbx command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{loadConfig: config.Load, now: clock.System})
}

func newRootCmd(a *app) *cobra.Command {
	var unbuffered bool

	root := &cobra.Command{
		Use:   "sbx",
		Short: "Sbx - Flashcard application on the terminal",
		Long: `Sbx keeps every flashcard in its own markdown file and schedules
reviews with the SM-2 spaced repetition algorithm.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			a.log.Debug("unbuffered=%t (output is never buffered)", unbuffered)
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&unbuffered, "unbuffered", "u", false, "ensure output is unbuffered")

	root.AddCommand(
		newEditCmd(a),
		newCreateCmd(a),
		newResetCmd(a),
		newStudyCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads configuration and routes logs to stderr so stdout carries only
// command output.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = a.loadConfig()
	a.log = logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(a.cfg.Level()),
		logger.WithColors(a.cfg.LogColor),
	)
	logger.SetDefault(a.log)
	return a.cfg.Validate()
}

// openJournal opens the review journal. The returned close func is never nil.
func (a *app) openJournal() (*db.DB, func(), error) {
	if !a.cfg.JournalEnabled {
		return nil, func() {}, nil
	}
	database, err := db.Open(a.cfg.JournalPath)
	if err != nil {
		return nil, func() {}, err
	}
	return database, func() {
		a.log.Debug("closing journal")
		database.Close()
	}, nil
}

// reviewService returns a service backed by the journal when it can be
// opened. A broken journal only costs the history, never a review.
func (a *app) reviewService() (services.ReviewService, *db.DB, func()) {
	database, closeFn, err := a.openJournal()
	if err != nil {
		a.log.Warn("review journal unavailable, continuing without it: %v", err)
		return services.NewReviewService(nil, a.now), nil, closeFn
	}
	if database == nil {
		return services.NewReviewService(nil, a.now), nil, closeFn
	}
	return services.NewReviewService(sqlite.NewReviewRepository(database.DB), a.now), database, closeFn
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Execute runs the command line and exits on failure.
func Execute() {
	err := NewRootCmd().Execute()
	if err == nil {
		return
	}
	var exit *ExitError
	if stderrors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
