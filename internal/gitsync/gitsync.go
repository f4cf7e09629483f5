package gitsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"comicpub/internal/config"
	"comicpub/internal/logging"
)

// Step names recorded on PushError.
const (
	StepAdd    = "add"
	StepDiff   = "diff"
	StepCommit = "commit"
	StepPush   = "push"
	StepVerify = "rev-parse"
)

const (
	// DefaultCommitPrefix starts commit messages when none is configured.
	DefaultCommitPrefix = "Auto add comic"
	// MessageTimeLayout formats the timestamp suffix of commit messages.
	MessageTimeLayout = "20060102_150405"
)

// Options configure a Syncer.
type Options struct {
	Enabled bool
	Binary  string
	Dir     string
	Remote  string
	Branch  string
}

type commandRunner func(ctx context.Context, dir, name string, args ...string) (string, error)

// Syncer snapshots the site working tree and pushes it to the remote.
type Syncer struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
}

// New constructs a Syncer.
func New(opts Options, logger *slog.Logger) *Syncer {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "git"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{opts: opts, logger: logger, run: runCommand}
}

// NewFromConfig builds a Syncer for the configured project root.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Syncer {
	return New(Options{
		Enabled: cfg.Git.Enabled,
		Binary:  cfg.GitBinary(),
		Dir:     cfg.Paths.ProjectRoot,
		Remote:  cfg.Git.Remote,
		Branch:  cfg.Git.Branch,
	}, logging.NewComponentLogger(logger, "git"))
}

// Enabled reports whether git operations run at all.
func (s *Syncer) Enabled() bool {
	return s != nil && s.opts.Enabled
}

// CommitMessage builds "<prefix>: <id> (<timestamp>)".
func CommitMessage(prefix, comicID string, at time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultCommitPrefix
	}
	return fmt.Sprintf("%s: %s (%s)", prefix, comicID, at.Format(MessageTimeLayout))
}

// SnapshotAndPush stages every change in the working tree, commits it when
// anything is staged, and pushes the branch. Disabled syncers do nothing.
func (s *Syncer) SnapshotAndPush(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}
	committed, err := s.Commit(ctx, message)
	if err != nil {
		return err
	}
	if !committed {
		s.logger.Info("nothing to commit; pushing existing history")
	}
	return s.Push(ctx)
}

// Commit stages all changes and commits them. It reports false when the
// index is clean after staging.
func (s *Syncer) Commit(ctx context.Context, message string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if out, err := s.git(ctx, "add", "."); err != nil {
		return false, &PushError{Step: StepAdd, Output: out, Err: err}
	}
	out, err := s.git(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		return false, &PushError{Step: StepDiff, Output: out, Err: err}
	}
	if out, err := s.git(ctx, "commit", "-m", message); err != nil {
		return false, &PushError{Step: StepCommit, Output: out, Err: err}
	}
	s.logger.Info("committed site changes", logging.String("message", message))
	return true, nil
}

// Push sends the configured branch to the configured remote.
func (s *Syncer) Push(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	out, err := s.git(ctx, "push", s.opts.Remote, s.opts.Branch)
	if err != nil {
		return &PushError{Step: StepPush, Output: out, Err: err}
	}
	s.logger.Info("pushed site",
		logging.String("remote", s.opts.Remote),
		logging.String("branch", s.opts.Branch),
	)
	return nil
}

// VerifyRepository checks that the project root is inside a git work tree.
func (s *Syncer) VerifyRepository(ctx context.Context) error {
	out, err := s.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return &PushError{Step: StepVerify, Output: out, Err: err}
	}
	if strings.TrimSpace(out) != "true" {
		return &PushError{Step: StepVerify, Output: out, Err: errors.New("not inside a work tree")}
	}
	return nil
}

func (s *Syncer) git(ctx context.Context, args ...string) (string, error) {
	s.logger.Debug("running git", logging.String("args", strings.Join(args, " ")))
	return s.run(ctx, s.opts.Dir, s.opts.Binary, args...)
}

func runCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}
