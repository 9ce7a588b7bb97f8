package apf

import (
	"fmt"
	"path/filepath"
	"runtime/debug"

	"github.com/sokinpui/apf/cli"
	"github.com/sokinpui/apf/internal/diffview"
	"github.com/sokinpui/apf/internal/extract"
	"github.com/sokinpui/apf/internal/nvim"
	"github.com/sokinpui/apf/internal/patch"
	"github.com/sokinpui/apf/internal/source"
	"github.com/sokinpui/apf/internal/state"
	"github.com/sokinpui/apf/internal/ui"
	"github.com/sokinpui/apf/model"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	patcher          *patch.Patcher
	stateManager     *state.Manager
	sourceProvider   *source.SourceProvider
	progressCallback ProgressUpdate
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	patcher, err := patch.New(cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	stateManager, err := state.New(patcher.WorkDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}
	sourceProvider := source.New(cfg.File)

	return &App{
		cfg:            cfg,
		patcher:        patcher,
		stateManager:   stateManager,
		sourceProvider: sourceProvider,
	}, nil
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastOperation()
	case a.cfg.Redo:
		return a.redoLastOperation()
	default:
		return a.processContent()
	}
}

// processContent handles the core logic: acquiring the source, extracting
// patch documents and applying (or checking) them.
func (a *App) processContent() (model.Summary, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	docs := extract.Documents(content)
	if len(docs) == 0 {
		return model.Summary{}, &patch.MalformedPatchError{Reason: "no patch envelope found in source"}
	}

	if a.cfg.Check {
		return a.checkDocuments(docs)
	}
	return a.applyDocuments(docs)
}

// applyDocuments applies each patch document in order. A failing document
// stops the run; changes from earlier documents stay on disk and are
// recorded in the history so --undo can revert them.
func (a *App) applyDocuments(docs []string) (model.Summary, error) {
	total := len(docs)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	var applied []patch.FileChange
	var applyErr error
	for i, doc := range docs {
		result, err := a.patcher.Apply(doc)
		if err != nil {
			applyErr = wrapDocumentError(i, total, err)
			break
		}
		applied = append(applied, result.Changes...)
		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	if len(applied) > 0 {
		if !a.cfg.NoState {
			ops := a.stateManager.CreateOperations(applied)
			if err := a.stateManager.Write(ops); err != nil {
				ui.Warning("Could not record undo history: %v", err)
			}
		}
		a.reloadChangedBuffers(changedPaths(applied))
	}

	if a.cfg.ShowDiff {
		a.printDiffs(applied)
	}

	return a.summarize(applied), applyErr
}

// checkDocuments runs the validation phase for each document without
// writing anything. Documents are checked against the tree as it is, so a
// document depending on an earlier one's changes will not validate.
func (a *App) checkDocuments(docs []string) (model.Summary, error) {
	var all []patch.FileChange
	for i, doc := range docs {
		result, err := a.patcher.Check(doc)
		if err != nil {
			return model.Summary{}, wrapDocumentError(i, len(docs), err)
		}
		all = append(all, result.Changes...)
	}

	if a.cfg.ShowDiff {
		a.printDiffs(all)
	}

	summary := a.summarize(all)
	summary.Message = "Patch is valid. No files were written."
	return summary, nil
}

// undoLastOperation handles the undo logic.
func (a *App) undoLastOperation() (model.Summary, error) {
	ops, err := a.stateManager.GetOperationsToUndo()
	if err != nil {
		return model.Summary{}, err
	}
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to undo."}, nil
	}

	undone, failed := a.stateManager.UndoFiles(ops, a.fileProgress(len(ops)))

	a.reloadChangedBuffers(operationPaths(ops))
	return model.Summary{
		Updated: a.relativizeAll(undone),
		Failed:  a.relativizeAll(failed),
		Message: "Undid last operation.",
	}, nil
}

// redoLastOperation handles the redo logic.
func (a *App) redoLastOperation() (model.Summary, error) {
	ops, err := a.stateManager.GetOperationsToRedo()
	if err != nil {
		return model.Summary{}, err
	}
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to redo."}, nil
	}

	redone, failed := a.stateManager.RedoFiles(ops, a.fileProgress(len(ops)))

	a.reloadChangedBuffers(operationPaths(ops))
	return model.Summary{
		Updated: a.relativizeAll(redone),
		Failed:  a.relativizeAll(failed),
		Message: "Redid last undone operation.",
	}, nil
}

// fileProgress adapts the app progress callback to a per-file counter.
func (a *App) fileProgress(total int) func(int) {
	if a.progressCallback == nil {
		return nil
	}
	a.progressCallback(0, total)
	return func(current int) {
		a.progressCallback(current, total)
	}
}

// printDiffs writes a colored diff of every change to stdout.
func (a *App) printDiffs(changes []patch.FileChange) {
	for _, change := range changes {
		fmt.Println(diffview.Render(a.relativize(change.TargetPath()), change.OldContent, change.NewContent))
	}
}

// reloadChangedBuffers asks a running Neovim instance to re-read buffers
// for the given files. Failures are warnings, never patch failures.
func (a *App) reloadChangedBuffers(paths []string) {
	if a.cfg.NoReload || len(paths) == 0 || !nvim.Available() {
		return
	}
	manager, err := nvim.New()
	if err != nil {
		ui.Warning("Neovim reload skipped: %v", err)
		return
	}
	defer manager.Close()

	if err := manager.ReloadFiles(paths); err != nil {
		ui.Warning("Neovim reload failed: %v", err)
	}
}

func (a *App) summarize(changes []patch.FileChange) model.Summary {
	return summarizeChanges(changes, a.patcher.WorkDir())
}

func (a *App) relativize(path string) string {
	return relativize(path, a.patcher.WorkDir())
}

func (a *App) relativizeAll(paths []string) []string {
	if paths == nil {
		return nil
	}
	rels := make([]string, len(paths))
	for i, p := range paths {
		rels[i] = a.relativize(p)
	}
	return rels
}

// Apply extracts every patch document in content and applies them in
// order to files under workDir. This is the library entry point; it does
// not touch the undo history.
func Apply(content, workDir string) (model.Summary, error) {
	patcher, err := patch.New(workDir)
	if err != nil {
		return model.Summary{}, err
	}

	docs := extract.Documents(content)
	if len(docs) == 0 {
		return model.Summary{}, &patch.MalformedPatchError{Reason: "no patch envelope found in source"}
	}

	var applied []patch.FileChange
	for i, doc := range docs {
		result, err := patcher.Apply(doc)
		if err != nil {
			return summarizeChanges(applied, patcher.WorkDir()), wrapDocumentError(i, len(docs), err)
		}
		applied = append(applied, result.Changes...)
	}
	return summarizeChanges(applied, patcher.WorkDir()), nil
}

// Check validates every patch document in content against workDir without
// writing any files.
func Check(content, workDir string) (model.Summary, error) {
	patcher, err := patch.New(workDir)
	if err != nil {
		return model.Summary{}, err
	}

	docs := extract.Documents(content)
	if len(docs) == 0 {
		return model.Summary{}, &patch.MalformedPatchError{Reason: "no patch envelope found in source"}
	}

	var all []patch.FileChange
	for i, doc := range docs {
		result, err := patcher.Check(doc)
		if err != nil {
			return model.Summary{}, wrapDocumentError(i, len(docs), err)
		}
		all = append(all, result.Changes...)
	}
	return summarizeChanges(all, patcher.WorkDir()), nil
}

// wrapDocumentError adds the document position for multi-document sources.
func wrapDocumentError(i, total int, err error) error {
	if total > 1 {
		return fmt.Errorf("patch document %d of %d failed: %w", i+1, total, err)
	}
	return err
}

// summarizeChanges converts changes into a display summary with paths
// relative to the working directory.
func summarizeChanges(changes []patch.FileChange, workDir string) model.Summary {
	var summary model.Summary
	for _, change := range changes {
		switch change.Kind {
		case patch.ChangeAdd:
			summary.Created = append(summary.Created, relativize(change.Path, workDir))
		case patch.ChangeUpdate:
			summary.Updated = append(summary.Updated, relativize(change.Path, workDir))
		case patch.ChangeMove:
			summary.Moved = append(summary.Moved,
				fmt.Sprintf("%s -> %s", relativize(change.Path, workDir), relativize(change.MovePath, workDir)))
		case patch.ChangeDelete:
			summary.Deleted = append(summary.Deleted, relativize(change.Path, workDir))
		}
	}
	return summary
}

// relativize converts an absolute path to one relative to the working
// directory for cleaner display.
func relativize(path, workDir string) string {
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		return path
	}
	return rel
}

// changedPaths collects every on-disk path a set of changes touched.
func changedPaths(changes []patch.FileChange) []string {
	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		paths = append(paths, change.Path)
		if change.Kind == patch.ChangeMove {
			paths = append(paths, change.MovePath)
		}
	}
	return paths
}

// operationPaths collects every on-disk path a set of recorded operations
// touched.
func operationPaths(ops []state.Operation) []string {
	paths := make([]string, 0, len(ops))
	for _, op := range ops {
		paths = append(paths, op.Path)
		if op.MovePath != "" {
			paths = append(paths, op.MovePath)
		}
	}
	return paths
}
