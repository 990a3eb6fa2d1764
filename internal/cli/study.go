package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vytor/sbx/internal/card"
	"github.com/vytor/sbx/internal/collection"
	"github.com/vytor/sbx/internal/session"
)

// cardSelection holds the filtering flags shared by study and list.
type cardSelection struct {
	include   bool
	recursive bool
	leech     bool
	zero      bool
}

func (s *cardSelection) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&s.include, "include-not-scheduled", "i", false, "include cards that are not scheduled for today's study session")
	f.BoolVarP(&s.recursive, "recursive", "r", false, "scan all sub directories for .md files")
	f.BoolVarP(&s.leech, "leech", "l", false, "select leech cards (of current subset)")
	f.BoolVarP(&s.zero, "zero", "z", false, "select cards that were marked zero last time (of current subset)")
}

func (s *cardSelection) collection(a *app, path string) *collection.Collection {
	filter := collection.Filter{
		IncludeUnscheduled: s.include,
		LeechOnly:          s.leech,
		ZeroOnly:           s.zero,
	}
	return collection.New(absPath(path), s.recursive, filter,
		collection.WithCardOptions(card.WithClock(a.now)),
		collection.WithLogger(a.log))
}

func newStudyCmd(a *app) *cobra.Command {
	var sel cardSelection

	cmd := &cobra.Command{
		Use:   "study <path>",
		Short: "start a study session on given path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cards, err := sel.collection(a, args[0]).Collect()
			if err != nil {
				return err
			}

			svc, _, closeJournal := a.reviewService()
			defer closeJournal()

			a.log.Info("studying %d cards from %s", len(cards), args[0])
			s := session.New(cards, svc, cmd.InOrStdin(), out,
				session.WithClock(a.now),
				session.WithLogger(a.log))
			sum, err := s.Run(cmd.Context())
			if stderrors.Is(err, session.ErrNothingToStudy) {
				fmt.Fprintln(out, session.NothingToStudy)
				return failed()
			}
			if err != nil {
				return err
			}
			a.log.Info("session finished: reviewed=%d failed=%d unsaved=%d", sum.Reviewed, sum.Failed, sum.Unsaved)
			return nil
		},
	}
	sel.bind(cmd)
	return cmd
}

const listSeparator = "- - - - - "

func newListCmd(a *app) *cobra.Command {
	var (
		sel       cardSelection
		namesOnly bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "list <path>",
		Short: "list cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for c, err := range sel.collection(a, args[0]).Cards() {
				if err != nil {
					return err
				}
				switch {
				case namesOnly:
					fmt.Fprintln(out, c.Path())
				case noColor:
					fmt.Fprintln(out, strings.Repeat(listSeparator, 4))
					fmt.Fprintln(out, c.String())
				default:
					fmt.Fprintln(out, strings.Repeat(listSeparator, 4))
					fmt.Fprintln(out, c.Formatted())
				}
			}
			return nil
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVarP(&namesOnly, "file-name-only", "n", false, "only list file name")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "don't use colours")
	return cmd
}
