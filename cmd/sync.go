package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/runlog"
)

var syncLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Crawl the identifier list from the saved cursor",
	Long:  "Walks the mirrored appid list from the persisted cursor, archiving one record per item. Interrupting with Ctrl-C checkpoints progress for the next invocation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		engine, err := buildEngine(syncLimit)
		if err != nil {
			return err
		}

		rl, err := openRunlog(ctx)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		run, err := rl.StartRun(ctx, "sync")
		if err != nil {
			return err
		}

		sum, runErr := engine.Run(ctx)

		status := runlog.StatusComplete
		switch {
		case errors.Is(runErr, context.Canceled):
			status = runlog.StatusAborted
		case runErr != nil:
			status = runlog.StatusFailed
		}
		// The run context may already be cancelled here.
		if err := rl.FinishRun(context.Background(), run.ID, status, sum); err != nil {
			zap.L().Warn("run log update failed", zap.Error(err))
		}

		zap.L().Info("sync finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(status)),
			zap.Int("processed", sum.Processed),
			zap.Int("archived", sum.Archived),
			zap.Int("skipped", sum.Skipped),
			zap.Int("degraded", sum.Degraded),
			zap.Int("rate_limited", sum.RateLimited),
			zap.Int("cursor", sum.LastIndex),
		)

		if status == runlog.StatusAborted {
			// The cursor already points at the next unprocessed item;
			// a later run resumes there.
			return nil
		}
		if runErr != nil {
			return eris.Wrap(runErr, "sync")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "stop after consuming this many identifiers (0 = run to the end)")
	rootCmd.AddCommand(syncCmd)
}
