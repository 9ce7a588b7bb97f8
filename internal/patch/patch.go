package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChangeKind classifies a planned file change.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeUpdate
	ChangeDelete
	ChangeMove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeUpdate:
		return "update"
	case ChangeDelete:
		return "delete"
	case ChangeMove:
		return "move"
	default:
		return "unknown"
	}
}

// FileChange is a single validated change with its contents fully
// materialized, ready to be committed to disk.
type FileChange struct {
	Path       string // absolute path of the target file
	OldContent string
	NewContent string
	Kind       ChangeKind
	MovePath   string // absolute move destination, set for ChangeMove
}

// TargetPath returns the path the change lands on after commit: the move
// destination for moves, the file path otherwise.
func (c FileChange) TargetPath() string {
	if c.Kind == ChangeMove {
		return c.MovePath
	}
	return c.Path
}

// Result describes the outcome of applying or checking a patch.
type Result struct {
	Summary      string       // human-readable roll-up of changed paths
	Changes      []FileChange // materialized changes in patch order
	Diffs        []string     // per-change diffs, aligned with Changes
	ChangedPaths []string     // paths relative to the working directory
}

// Patcher validates and applies patch documents against a single working
// directory. Paths that resolve outside that directory are rejected.
type Patcher struct {
	workDir string
}

// New returns a Patcher rooted at workDir. An empty workDir means the
// process working directory.
func New(workDir string) (*Patcher, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		workDir = wd
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return &Patcher{workDir: abs}, nil
}

// WorkDir returns the directory the patcher operates on.
func (p *Patcher) WorkDir() string { return p.workDir }

// Apply parses patchText, validates every operation and then commits all
// changes. The whole patch is validated and materialized in memory before
// any file is touched; once writing starts there is no rollback, so a
// failure mid-commit leaves earlier changes in place.
func (p *Patcher) Apply(patchText string) (*Result, error) {
	ops, err := Parse(patchText)
	if err != nil {
		return nil, err
	}

	changes, err := p.materialize(ops)
	if err != nil {
		return nil, err
	}

	changed, err := p.commit(changes)
	if err != nil {
		return nil, err
	}

	return p.buildResult(changes, changed), nil
}

// Check runs the validation phase only: the patch is parsed and every
// change materialized in memory, but nothing is written to disk.
func (p *Patcher) Check(patchText string) (*Result, error) {
	ops, err := Parse(patchText)
	if err != nil {
		return nil, err
	}

	changes, err := p.materialize(ops)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(changes))
	for _, change := range changes {
		changed = append(changed, change.TargetPath())
	}

	return p.buildResult(changes, changed), nil
}

// materialize validates the operations and computes the new contents of
// every touched file without writing anything.
func (p *Patcher) materialize(ops []Operation) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(ops))

	for _, op := range ops {
		switch op := op.(type) {
		case *AddOp:
			filePath := p.resolvePath(op.FilePath)
			if !isPathWithinDirectory(filePath, p.workDir) {
				return nil, &PathEscapeError{Path: op.FilePath}
			}

			changes = append(changes, FileChange{
				Path:       filePath,
				NewContent: op.Contents,
				Kind:       ChangeAdd,
			})

		case *DeleteOp:
			filePath := p.resolvePath(op.FilePath)
			if !isPathWithinDirectory(filePath, p.workDir) {
				return nil, &PathEscapeError{Path: op.FilePath}
			}

			oldContent, err := readRegularFile(filePath)
			if err != nil {
				return nil, err
			}

			changes = append(changes, FileChange{
				Path:       filePath,
				OldContent: oldContent,
				Kind:       ChangeDelete,
			})

		case *UpdateOp:
			filePath := p.resolvePath(op.FilePath)
			if !isPathWithinDirectory(filePath, p.workDir) {
				return nil, &PathEscapeError{Path: op.FilePath}
			}

			oldContent, err := readRegularFile(filePath)
			if err != nil {
				return nil, err
			}
			newContent, err := deriveNewContents(filePath, oldContent, op.Chunks)
			if err != nil {
				return nil, err
			}

			change := FileChange{
				Path:       filePath,
				OldContent: oldContent,
				NewContent: newContent,
				Kind:       ChangeUpdate,
			}
			if op.MovePath != "" {
				movePath := p.resolvePath(op.MovePath)
				if !isPathWithinDirectory(movePath, p.workDir) {
					return nil, &PathEscapeError{Path: op.MovePath, Move: true}
				}
				change.Kind = ChangeMove
				change.MovePath = movePath
			}
			changes = append(changes, change)
		}
	}

	return changes, nil
}

// commit writes the changes to disk in patch order and returns the
// affected paths. There is no rollback on failure.
func (p *Patcher) commit(changes []FileChange) ([]string, error) {
	changed := make([]string, 0, len(changes))

	for _, change := range changes {
		switch change.Kind {
		case ChangeAdd:
			if err := os.MkdirAll(filepath.Dir(change.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for %s: %w", change.Path, err)
			}
			if err := os.WriteFile(change.Path, []byte(change.NewContent), 0644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", change.Path, err)
			}
			changed = append(changed, change.Path)

		case ChangeUpdate:
			if err := os.WriteFile(change.Path, []byte(change.NewContent), 0644); err != nil {
				return nil, fmt.Errorf("failed to write updated file %s: %w", change.Path, err)
			}
			changed = append(changed, change.Path)

		case ChangeMove:
			if err := os.MkdirAll(filepath.Dir(change.MovePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for move %s: %w", change.MovePath, err)
			}
			if err := os.WriteFile(change.MovePath, []byte(change.NewContent), 0644); err != nil {
				return nil, fmt.Errorf("failed to write moved file %s: %w", change.MovePath, err)
			}
			if err := os.Remove(change.Path); err != nil {
				return nil, fmt.Errorf("failed to remove original file %s: %w", change.Path, err)
			}
			changed = append(changed, change.MovePath)

		case ChangeDelete:
			if err := os.Remove(change.Path); err != nil {
				return nil, fmt.Errorf("failed to delete %s: %w", change.Path, err)
			}
			changed = append(changed, change.Path)
		}
	}

	return changed, nil
}

// buildResult assembles the summary, diffs and relativized paths for the
// given changes.
func (p *Patcher) buildResult(changes []FileChange, changedPaths []string) *Result {
	diffs := make([]string, 0, len(changes))
	for _, change := range changes {
		diffs = append(diffs, generateDiff(change.Path, change.OldContent, change.NewContent))
	}

	relPaths := make([]string, 0, len(changedPaths))
	for _, path := range changedPaths {
		rel, err := filepath.Rel(p.workDir, path)
		if err != nil {
			rel = path
		}
		relPaths = append(relPaths, rel)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d files changed:", len(changes))
	for _, rel := range relPaths {
		b.WriteString("\n  ")
		b.WriteString(rel)
	}

	return &Result{
		Summary:      b.String(),
		Changes:      changes,
		Diffs:        diffs,
		ChangedPaths: relPaths,
	}
}

// resolvePath turns a path as written in the patch into an absolute path.
// Relative paths are anchored at the working directory; absolute paths are
// kept, so the containment check can reject ones pointing elsewhere.
func (p *Patcher) resolvePath(patchPath string) string {
	path := filepath.FromSlash(patchPath)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.workDir, path)
}

// readRegularFile reads filePath, reporting a MissingFileError when the
// path does not exist or is a directory.
func readRegularFile(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingFileError{Path: filePath}
		}
		return "", fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}
	if info.IsDir() {
		return "", &MissingFileError{Path: filePath}
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return string(content), nil
}

// isPathWithinDirectory reports whether filePath resolves to a location
// inside dir.
func isPathWithinDirectory(filePath, dir string) bool {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(filepath.Clean(absDir), filepath.Clean(absFilePath))
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
