package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/adii83/steam-metadata-archive/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect crawl run history",
	Long:  "Commands for listing, viewing, and summarizing crawl runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List crawl runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rl, err := openRunlog(ctx)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := rl.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rl, err := openRunlog(ctx)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		run, err := rl.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rl, err := openRunlog(ctx)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		runs, err := rl.ListRuns(ctx, 10000)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		stats := computeRunStats(runs)
		formatRunStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total       int
	Complete    int
	Failed      int
	Aborted     int
	Running     int
	Archived    int
	Skipped     int
	RateLimited int
	AvgDurSecs  float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []runlog.Run) runStats {
	var s runStats
	s.Total = len(runs)

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		switch r.Status {
		case runlog.StatusComplete:
			s.Complete++
			totalDur += r.UpdatedAt.Sub(r.StartedAt)
			durCount++
		case runlog.StatusFailed:
			s.Failed++
		case runlog.StatusAborted:
			s.Aborted++
		default:
			s.Running++
		}
		if r.Summary != nil {
			s.Archived += r.Summary.Archived
			s.Skipped += r.Summary.Skipped
			s.RateLimited += r.Summary.RateLimited
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []runlog.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tSTATUS\tARCHIVED\tSKIPPED\tPAUSES\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.StartedAt).Round(time.Second).String()

		archived, skipped, pauses := "-", "-", "-"
		if r.Summary != nil {
			archived = fmt.Sprintf("%d", r.Summary.Archived)
			skipped = fmt.Sprintf("%d", r.Summary.Skipped)
			pauses = fmt.Sprintf("%d", r.Summary.RateLimited)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Mode,
			r.Status,
			archived,
			skipped,
			pauses,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Aborted:\t%d\n", s.Aborted)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "Items archived:\t%d\n", s.Archived)
	_, _ = fmt.Fprintf(w, "Items skipped:\t%d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Rate-limit pauses:\t%d\n", s.RateLimited)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
