package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive progress at a glance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		catalog, cursor, err := openStores()
		if err != nil {
			return err
		}

		rl, err := openRunlog(ctx)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		latest, err := rl.LatestRun(ctx)
		if err != nil {
			return eris.Wrap(err, "latest run")
		}

		protected := 0
		for _, id := range catalog.IDs() {
			if rec, ok := catalog.Get(id); ok && rec.Protection.Affirmative() {
				protected++
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Archived:\t%d\n", catalog.Len())
		_, _ = fmt.Fprintf(w, "Protected:\t%d\n", protected)
		_, _ = fmt.Fprintf(w, "Cursor:\t%d\n", cursor.Index)
		if latest != nil {
			_, _ = fmt.Fprintf(w, "Last run:\t%s (%s, %s)\n", truncateID(latest.ID), latest.Mode, latest.Status)
			_, _ = fmt.Fprintf(w, "Started:\t%s\n", latest.StartedAt.Local().Format("2006-01-02 15:04"))
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
