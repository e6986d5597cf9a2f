// Package runstate manages the artifacts of a run directory: the task
// descriptor (prd.json), the progress log, the branch marker, and the
// archive of previous runs.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/hugo-lorenzo-mato/ralph/internal/core"
	"github.com/hugo-lorenzo-mato/ralph/internal/fsutil"
	"github.com/hugo-lorenzo-mato/ralph/internal/logging"
)

// Well-known file names inside the run directory.
const (
	PRDFile        = "prd.json"
	ProgressFile   = "progress.txt"
	LastBranchFile = ".last-branch"
	ArchiveDir     = "archive"
	PromptFile     = "prompt.md"
)

// branchPrefix is stripped from branch names when building archive folder
// names.
const branchPrefix = "ralph/"

// Manager owns the run-state lifecycle for one run directory. All writes to
// the marker and progress log are atomic.
type Manager struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

// NewManager creates a manager for the given run directory.
func NewManager(dir string, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Setup runs the three startup operations in their required order. The
// archive decision always completes before the marker is overwritten, so it
// never compares against the value it is about to write.
func (m *Manager) Setup() error {
	if err := m.ArchiveIfBranchChanged(); err != nil {
		return err
	}
	if err := m.TrackCurrentBranch(); err != nil {
		return err
	}
	return m.EnsureProgressLog()
}

// ArchiveIfBranchChanged archives the previous run's descriptor and progress
// log when the active branch differs from the recorded one, then resets the
// progress log. No-op when either the descriptor or the marker is absent, or
// when either branch name is empty.
func (m *Manager) ArchiveIfBranchChanged() error {
	if !fsutil.Exists(m.path(PRDFile)) || !fsutil.Exists(m.path(LastBranchFile)) {
		return nil
	}

	current, err := m.CurrentBranch()
	if err != nil {
		return err
	}

	lastRaw, err := fsutil.ReadFileScoped(m.path(LastBranchFile))
	if err != nil {
		return core.ErrState(core.CodeArchiveFailed, fmt.Sprintf("reading branch marker: %v", err))
	}
	last := strings.TrimSpace(string(lastRaw))

	if current == "" || last == "" || current == last {
		return nil
	}

	folder := m.now().Format("2006-01-02") + "-" + strings.TrimPrefix(last, branchPrefix)
	archivePath := filepath.Join(m.dir, ArchiveDir, folder)

	m.logger.Info("archiving previous run", "branch", last, "archive", archivePath)

	if err := os.MkdirAll(archivePath, 0o755); err != nil {
		return core.ErrState(core.CodeArchiveFailed, fmt.Sprintf("creating archive folder: %v", err))
	}

	for _, name := range []string{PRDFile, ProgressFile} {
		src := m.path(name)
		if !fsutil.Exists(src) {
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(archivePath, name)); err != nil {
			return core.ErrState(core.CodeArchiveFailed, fmt.Sprintf("archiving %s: %v", name, err))
		}
	}

	return m.resetProgressLog()
}

// TrackCurrentBranch records the active branch in the marker file. Runs
// regardless of whether an archive happened, always after it.
func (m *Manager) TrackCurrentBranch() error {
	if !fsutil.Exists(m.path(PRDFile)) {
		return nil
	}

	current, err := m.CurrentBranch()
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}

	if err := renameio.WriteFile(m.path(LastBranchFile), []byte(current), 0o644); err != nil {
		return core.ErrState("MARKER_WRITE_FAILED", fmt.Sprintf("writing branch marker: %v", err))
	}
	return nil
}

// EnsureProgressLog creates the progress log with a fresh header iff it does
// not exist. An existing log is left untouched.
func (m *Manager) EnsureProgressLog() error {
	if fsutil.Exists(m.path(ProgressFile)) {
		return nil
	}
	return m.resetProgressLog()
}

// resetProgressLog truncates the progress log and writes a fresh header.
func (m *Manager) resetProgressLog() error {
	header := fmt.Sprintf("# Ralph Progress Log\nStarted: %s\n---\n", m.now().Format(time.RFC3339))
	if err := renameio.WriteFile(m.path(ProgressFile), []byte(header), 0o644); err != nil {
		return core.ErrState("PROGRESS_RESET_FAILED", fmt.Sprintf("resetting progress log: %v", err))
	}
	return nil
}

// prd mirrors the task descriptor file. Only branchName matters to the core;
// the rest of the document is external.
type prd struct {
	BranchName string `json:"branchName"`
}

// CurrentBranch reads the active branch name from the task descriptor.
// Returns empty without error when the descriptor is absent; a descriptor
// that exists but cannot be parsed is a run-state error.
func (m *Manager) CurrentBranch() (string, error) {
	raw, err := fsutil.ReadFileScoped(m.path(PRDFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", core.ErrState("PRD_UNREADABLE", fmt.Sprintf("reading %s: %v", PRDFile, err))
	}

	var p prd
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", core.ErrState("PRD_MALFORMED", fmt.Sprintf("parsing %s: %v", PRDFile, err))
	}
	return p.BranchName, nil
}

// ReadPrompt reads the static prompt text. Read every iteration, never
// mutated.
func (m *Manager) ReadPrompt() (string, error) {
	raw, err := fsutil.ReadFileScoped(m.path(PromptFile))
	if err != nil {
		return "", &core.DomainError{
			Category: core.ErrCatState,
			Code:     core.CodePromptUnreadable,
			Message:  fmt.Sprintf("reading %s", PromptFile),
			Cause:    err,
		}
	}
	return string(raw), nil
}

// Dir returns the run directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ProgressPath returns the absolute progress log path, for user-facing
// status messages.
func (m *Manager) ProgressPath() string {
	return m.path(ProgressFile)
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name)
}
