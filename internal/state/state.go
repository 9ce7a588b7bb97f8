package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sokinpui/apf/internal/patch"
)

const (
	stateDirName  = ".apf"
	stateFileName = "state.json"
	blobDirName   = "blobs"
)

// Operation represents a single applied file operation.
type Operation struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	MovePath string `json:"move_path,omitempty"`
	OldBlob  string `json:"old_blob,omitempty"` // content hash before the operation
	NewBlob  string `json:"new_blob,omitempty"` // content hash after the operation
}

// HistoryEntry represents one applied patch.
type HistoryEntry struct {
	Timestamp  int64       `json:"timestamp"`
	Operations []Operation `json:"operations"`
}

// State represents the entire state file.
type State struct {
	History      []HistoryEntry `json:"history"`
	CurrentIndex int            `json:"current_index"`
}

// Manager handles the lifecycle of the state file and its content blobs.
type Manager struct {
	statePath string
	blobDir   string
	state     *State
	StateDir  string
}

// New creates and loads a state manager rooted at rootDir. An empty rootDir
// means the process working directory.
func New(rootDir string) (*Manager, error) {
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		rootDir = wd
	}

	stateDir := filepath.Join(rootDir, stateDirName)
	blobDir := filepath.Join(stateDir, blobDirName)
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		statePath: filepath.Join(stateDir, stateFileName),
		blobDir:   blobDir,
		StateDir:  stateDir,
	}
	if err := m.load(); err != nil {
		m.state = &State{CurrentIndex: -1, History: []HistoryEntry{}}
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{CurrentIndex: -1, History: []HistoryEntry{}}
			return nil
		}
		return err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("invalid state file: %w", err)
	}
	m.state = &st
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}
	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	return nil
}

// Write adds a new set of operations to the history. Any entries past the
// current index are discarded, so a write after an undo drops the redo tail.
func (m *Manager) Write(operations []Operation) error {
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}

	newEntry := HistoryEntry{
		Timestamp:  time.Now().UTC().Unix(),
		Operations: operations,
	}
	m.state.History = append(m.state.History, newEntry)
	m.state.CurrentIndex++
	return m.save()
}

// GetOperationsToUndo gets the last operations and moves the history pointer.
func (m *Manager) GetOperationsToUndo() ([]Operation, error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil
	}
	ops := m.state.History[m.state.CurrentIndex].Operations
	m.state.CurrentIndex--
	if err := m.save(); err != nil {
		return nil, err
	}
	return ops, nil
}

// GetOperationsToRedo gets the next operations and moves the history pointer.
func (m *Manager) GetOperationsToRedo() ([]Operation, error) {
	nextIndex := m.state.CurrentIndex + 1
	if nextIndex >= len(m.state.History) {
		return nil, nil
	}
	m.state.CurrentIndex = nextIndex
	ops := m.state.History[m.state.CurrentIndex].Operations
	if err := m.save(); err != nil {
		return nil, err
	}
	return ops, nil
}

// CreateOperations prepares a list of operations from committed file changes,
// storing the before and after contents as blobs.
func (m *Manager) CreateOperations(changes []patch.FileChange) []Operation {
	ops := make([]Operation, 0, len(changes))
	for _, change := range changes {
		op := Operation{
			Kind: change.Kind.String(),
			Path: change.Path,
		}
		switch change.Kind {
		case patch.ChangeAdd:
			op.NewBlob = m.storeBlob(change.NewContent)
		case patch.ChangeUpdate:
			op.OldBlob = m.storeBlob(change.OldContent)
			op.NewBlob = m.storeBlob(change.NewContent)
		case patch.ChangeMove:
			op.MovePath = change.MovePath
			op.OldBlob = m.storeBlob(change.OldContent)
			op.NewBlob = m.storeBlob(change.NewContent)
		case patch.ChangeDelete:
			op.OldBlob = m.storeBlob(change.OldContent)
		}
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Path < ops[j].Path
	})
	return ops
}

// storeBlob saves content to the blob directory, named by its hash. On
// failure the hash is empty and undo for the file will fail its check.
func (m *Manager) storeBlob(content string) string {
	hash := hashContent(content)
	blobPath := filepath.Join(m.blobDir, hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash
	}
	if err := os.WriteFile(blobPath, []byte(content), 0644); err != nil {
		return ""
	}
	return hash
}

func (m *Manager) loadBlob(hash string) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("no content recorded")
	}
	data, err := os.ReadFile(filepath.Join(m.blobDir, hash))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// processOps runs a set of operations sequentially, reporting progress.
func processOps(ops []Operation, processFn func(op Operation) (string, bool), progressCb func(int)) (succeeded, failed []string) {
	if len(ops) == 0 {
		return nil, nil
	}

	for i, op := range ops {
		path, success := processFn(op)
		if success {
			succeeded = append(succeeded, path)
		} else {
			failed = append(failed, path)
		}
		if progressCb != nil {
			progressCb(i + 1)
		}
	}

	return succeeded, failed
}

// UndoFiles reverses a set of operations on disk.
func (m *Manager) UndoFiles(ops []Operation, progressCb func(int)) (undone, failed []string) {
	processFn := func(op Operation) (string, bool) {
		return op.Path, m.undoFile(op)
	}
	return processOps(ops, processFn, progressCb)
}

func (m *Manager) undoFile(op Operation) bool {
	switch op.Kind {
	case "add":
		currentHash, err := hashFile(op.Path)
		if err != nil {
			// If the file is already gone, the undo of an add is done.
			return os.IsNotExist(err)
		}
		// Core safety check: if the file has been changed since the
		// patch wrote it, abort the undo for this file.
		if currentHash != op.NewBlob {
			return false
		}
		if err := os.Remove(op.Path); err != nil {
			return false
		}
		pruneEmptyDir(filepath.Dir(op.Path))
		return true

	case "update":
		currentHash, err := hashFile(op.Path)
		if err != nil || currentHash != op.NewBlob {
			return false
		}
		return m.restoreBlob(op.Path, op.OldBlob)

	case "move":
		currentHash, err := hashFile(op.MovePath)
		if err != nil || currentHash != op.NewBlob {
			return false
		}
		if _, err := os.Stat(op.Path); !os.IsNotExist(err) {
			// Don't overwrite an existing file at the original path.
			return false
		}
		if !m.restoreBlob(op.Path, op.OldBlob) {
			return false
		}
		if err := os.Remove(op.MovePath); err != nil {
			return false
		}
		pruneEmptyDir(filepath.Dir(op.MovePath))
		return true

	case "delete":
		if _, err := os.Stat(op.Path); !os.IsNotExist(err) {
			// Don't overwrite a file recreated after the delete.
			return false
		}
		return m.restoreBlob(op.Path, op.OldBlob)
	}
	return false
}

// RedoFiles reapplies a set of undone operations on disk.
func (m *Manager) RedoFiles(ops []Operation, progressCb func(int)) (redone, failed []string) {
	processFn := func(op Operation) (string, bool) {
		return op.Path, m.redoFile(op)
	}
	return processOps(ops, processFn, progressCb)
}

func (m *Manager) redoFile(op Operation) bool {
	switch op.Kind {
	case "add":
		if currentHash, err := hashFile(op.Path); err == nil {
			// A matching file means the redo is already done.
			return currentHash == op.NewBlob
		}
		return m.restoreBlob(op.Path, op.NewBlob)

	case "update":
		currentHash, err := hashFile(op.Path)
		if err != nil || currentHash != op.OldBlob {
			return false
		}
		return m.restoreBlob(op.Path, op.NewBlob)

	case "move":
		currentHash, err := hashFile(op.Path)
		if err != nil || currentHash != op.OldBlob {
			return false
		}
		if _, err := os.Stat(op.MovePath); !os.IsNotExist(err) {
			// Don't overwrite an existing file at the destination.
			return false
		}
		if !m.restoreBlob(op.MovePath, op.NewBlob) {
			return false
		}
		if err := os.Remove(op.Path); err != nil {
			return false
		}
		pruneEmptyDir(filepath.Dir(op.Path))
		return true

	case "delete":
		currentHash, err := hashFile(op.Path)
		if err != nil || currentHash != op.OldBlob {
			return false
		}
		if err := os.Remove(op.Path); err != nil {
			return false
		}
		pruneEmptyDir(filepath.Dir(op.Path))
		return true
	}
	return false
}

// restoreBlob writes the blob's content at path, creating parent directories.
func (m *Manager) restoreBlob(path, hash string) bool {
	content, err := m.loadBlob(hash)
	if err != nil {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false
	}
	return os.WriteFile(path, []byte(content), 0644) == nil
}

// pruneEmptyDir removes dir if it is empty.
func pruneEmptyDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		os.Remove(dir)
	}
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
