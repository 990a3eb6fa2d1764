package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vytor/sbx/internal/clock"
	"github.com/vytor/sbx/internal/models"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		prefix string
		days   int
		recent int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "show review statistics from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.StatsDays
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}

			svc, _, closeJournal := a.reviewService()
			defer closeJournal()

			since := a.now().AddDate(0, 0, -days)
			filter := models.ReviewFilter{Since: &since}
			if prefix != "" {
				filter.PathPrefix = absPath(prefix)
			}

			stats, err := svc.Stats(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats, days)

			if recent <= 0 {
				return nil
			}
			filter.Limit = recent
			reviews, err := svc.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printRecent(cmd.OutOrStdout(), reviews)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "path", "", "only count cards under this path")
	cmd.Flags().IntVar(&days, "days", 0, "look back this many days (default $SBX_STATS_DAYS)")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent reviews")
	return cmd
}

func printStats(out io.Writer, s *models.ReviewStats, days int) {
	fmt.Fprintln(out, "Statistics")
	fmt.Fprintln(out, "-------------")
	fmt.Fprintf(out, "Reviews (last %d days): %d\n", days, s.TotalReviews)
	fmt.Fprintf(out, "Reviews (last 7 days):  %d\n", s.ReviewsLast7Days)
	fmt.Fprintf(out, "Cards reviewed:         %d\n", s.DistinctCards)
	fmt.Fprintf(out, "Average quality:        %.2f\n", s.AverageQuality)
	fmt.Fprintf(out, "Average answer time:    %.1fs\n", s.AvgDuration)

	fmt.Fprintln(out, "\nQuality")
	fmt.Fprintln(out, "-------------")
	for q := len(s.CountByQuality) - 1; q >= 0; q-- {
		fmt.Fprintf(out, "%d: %d\n", q, s.CountByQuality[q])
	}

	if len(s.Struggling) == 0 {
		return
	}
	fmt.Fprintln(out, "\nStruggling")
	fmt.Fprintln(out, "-------------")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAILURES\tREVIEWS\tCARD")
	for _, c := range s.Struggling {
		fmt.Fprintf(w, "%d\t%d\t%s\n", c.Failures, c.Reviews, c.CardPath)
	}
	w.Flush()
}

func printRecent(out io.Writer, reviews []models.Review) {
	fmt.Fprintln(out, "\nRecent")
	fmt.Fprintln(out, "-------------")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tQUALITY\tNEXT\tCARD")
	for _, rv := range reviews {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			clock.Format(rv.ReviewedAt.Unix()), rv.Quality, clock.Format(rv.NextSession), rv.CardPath)
	}
	w.Flush()
}
