package patch

import (
	"fmt"
	"strings"
)

// MalformedPatchError reports a patch document that cannot be decoded:
// missing envelope markers or no operations between them.
type MalformedPatchError struct {
	Reason string
}

func (e *MalformedPatchError) Error() string {
	return e.Reason
}

// PathEscapeError reports a patch path that resolves outside the working
// directory. Path is the path exactly as written in the patch.
type PathEscapeError struct {
	Path string
	Move bool // the offending path is a move destination
}

func (e *PathEscapeError) Error() string {
	if e.Move {
		return fmt.Sprintf("move destination %s is not in the current working directory", e.Path)
	}
	return fmt.Sprintf("file %s is not in the current working directory", e.Path)
}

// MissingFileError reports an update or delete that targets a path which
// does not exist as a regular file.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return "file not found or is directory: " + e.Path
}

// ContextNotFoundError reports a context hint that matched nowhere at or
// after the current position in the target file.
type ContextNotFoundError struct {
	Context string
	Path    string
}

func (e *ContextNotFoundError) Error() string {
	return fmt.Sprintf("failed to find context '%s' in %s", e.Context, e.Path)
}

// LinesNotFoundError reports a chunk whose old lines matched nowhere at or
// after the current position in the target file.
type LinesNotFoundError struct {
	Path  string
	Lines []string
}

func (e *LinesNotFoundError) Error() string {
	return fmt.Sprintf("failed to find expected lines in %s:\n%s", e.Path, strings.Join(e.Lines, "\n"))
}
