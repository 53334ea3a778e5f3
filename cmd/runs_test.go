package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adii83/steam-metadata-archive/internal/runlog"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	runs := []runlog.Run{
		{
			ID:     "abc12345-6789-0000-0000-000000000000",
			Mode:   "sync",
			Status: runlog.StatusComplete,
			Summary: &runlog.Summary{
				Processed:   120,
				Archived:    100,
				Skipped:     20,
				RateLimited: 2,
			},
			StartedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Mode:      "batch",
			Status:    runlog.StatusRunning,
			StartedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "MODE")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "sync")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "100")
	assert.Contains(t, output, "2026-08-15 10:30")
	assert.Contains(t, output, "batch")
	assert.Contains(t, output, "running")
}

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	runs := []runlog.Run{
		{
			ID:        "1",
			Status:    runlog.StatusComplete,
			Summary:   &runlog.Summary{Archived: 50, Skipped: 5, RateLimited: 1},
			StartedAt: now,
			UpdatedAt: now.Add(100 * time.Second),
		},
		{
			ID:        "2",
			Status:    runlog.StatusComplete,
			Summary:   &runlog.Summary{Archived: 30, Skipped: 2},
			StartedAt: now,
			UpdatedAt: now.Add(200 * time.Second),
		},
		{ID: "3", Status: runlog.StatusFailed},
		{ID: "4", Status: runlog.StatusAborted, Summary: &runlog.Summary{Archived: 7}},
		{ID: "5", Status: runlog.StatusRunning},
	}

	s := computeRunStats(runs)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Aborted)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 87, s.Archived)
	assert.Equal(t, 7, s.Skipped)
	assert.Equal(t, 1, s.RateLimited)
	assert.InDelta(t, 150.0, s.AvgDurSecs, 0.001)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total:      3,
		Complete:   2,
		Aborted:    1,
		Archived:   80,
		AvgDurSecs: 42.5,
	})

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "3")
	assert.Contains(t, output, "Items archived:")
	assert.Contains(t, output, "80")
	assert.Contains(t, output, "42.5s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
