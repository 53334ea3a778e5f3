package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/store"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop archived items missing from the identifier list",
	Long:  "Reconciles the catalog against a fresh mirror download. With --dry-run the stale appids are listed without touching the archive.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("prune"); err != nil {
			return err
		}

		catalog, err := store.LoadCatalog(cfg.Store.Catalog)
		if err != nil {
			return err
		}

		ids, err := newMirrorSource().List(ctx)
		if err != nil {
			return eris.Wrap(err, "load identifier list")
		}

		pruned := catalog.Reconcile(ids)
		if len(pruned) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to prune.")
			return nil
		}
		for _, id := range pruned {
			fmt.Fprintln(os.Stdout, id)
		}

		if pruneDryRun {
			zap.L().Info("dry run, archive untouched", zap.Int("stale", len(pruned)))
			return nil
		}

		if err := catalog.Save(); err != nil {
			return err
		}
		zap.L().Info("pruned stale items",
			zap.Int("count", len(pruned)),
			zap.Int("remaining", catalog.Len()),
		)
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list stale appids without writing the catalog")
	rootCmd.AddCommand(pruneCmd)
}
