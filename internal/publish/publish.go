// Package publish pushes the archive files to their git remote each time
// the crawl clears a checkpoint. Publishing is fire-and-forget: a broken
// remote costs a warning, never the run.
package publish

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Publisher is the checkpoint hook the orchestrator calls.
type Publisher interface {
	// Trigger starts a publish if none is in flight. It never blocks.
	Trigger()
	// Wait blocks until any in-flight publish finishes.
	Wait()
}

// Noop is the Publisher used when publishing is disabled.
type Noop struct{}

func (Noop) Trigger() {}
func (Noop) Wait()    {}

const commitMessage = "Auto-update archive"

// runner executes one command in dir. Swapped out in tests.
type runner func(ctx context.Context, dir, name string, args ...string) error

// GitPublisher stages the archive files, commits, and pushes. At most
// one publish runs at a time; triggers during an active publish are
// dropped since the next checkpoint covers the same files.
type GitPublisher struct {
	dir     string
	files   []string
	timeout time.Duration
	run     runner

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// NewGitPublisher creates a GitPublisher for the given worktree and
// files.
func NewGitPublisher(dir string, files []string, timeout time.Duration) *GitPublisher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GitPublisher{
		dir:     dir,
		files:   files,
		timeout: timeout,
		run:     runGit,
	}
}

// Trigger starts a publish in the background.
func (p *GitPublisher) Trigger() {
	if !p.inFlight.CompareAndSwap(false, true) {
		zap.L().Debug("publish already in flight, skipping trigger")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.publish()
	}()
}

// Wait blocks until any in-flight publish finishes. Call before process
// exit so a push is not cut off mid-transfer.
func (p *GitPublisher) Wait() {
	p.wg.Wait()
}

func (p *GitPublisher) publish() {
	// Independent of the crawl context: a checkpoint push should finish
	// even while the run is being stopped.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	steps := [][]string{
		append([]string{"add"}, p.files...),
		{"commit", "-m", commitMessage},
		{"push"},
	}
	for _, args := range steps {
		if err := p.run(ctx, p.dir, "git", args...); err != nil {
			zap.L().Warn("auto-publish failed",
				zap.Strings("args", args),
				zap.Error(err),
			)
			return
		}
	}
	zap.L().Info("auto-publish complete", zap.Strings("files", p.files))
}

func runGit(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "publish: %s %v: %s", name, args, stderr.String())
	}
	return nil
}
