package patch

import (
	"strings"
)

const (
	beginMarker      = "*** Begin Patch"
	endMarker        = "*** End Patch"
	addFilePrefix    = "*** Add File:"
	deleteFilePrefix = "*** Delete File:"
	updateFilePrefix = "*** Update File:"
	moveToPrefix     = "*** Move to:"
	endOfFileMarker  = "*** End of File"
)

// Operation is a single file-level action decoded from a patch document.
// The concrete types are AddOp, DeleteOp and UpdateOp; no other
// implementations exist.
type Operation interface {
	// Path returns the target file path as written in the patch.
	Path() string
	isOperation()
}

// AddOp creates a new file with the given contents.
type AddOp struct {
	FilePath string
	Contents string
}

// DeleteOp removes an existing file.
type DeleteOp struct {
	FilePath string
}

// UpdateOp edits an existing file through one or more chunks, optionally
// moving it to a new path afterwards.
type UpdateOp struct {
	FilePath string
	MovePath string // empty when the file is not moved
	Chunks   []Chunk
}

func (o *AddOp) Path() string    { return o.FilePath }
func (o *DeleteOp) Path() string { return o.FilePath }
func (o *UpdateOp) Path() string { return o.FilePath }

func (o *AddOp) isOperation()    {}
func (o *DeleteOp) isOperation() {}
func (o *UpdateOp) isOperation() {}

// Chunk is a single change within a file update: OldLines are replaced by
// NewLines, optionally anchored by a context hint from an "@@" line.
type Chunk struct {
	OldLines    []string
	NewLines    []string
	Context     string
	IsEndOfFile bool
}

// Parse decodes a patch document into its operations.
//
// The document must contain "*** Begin Patch" and "*** End Patch" marker
// lines; when a marker appears more than once the last occurrence wins.
// Unrecognized lines between operations are ignored.
func Parse(patchText string) ([]Operation, error) {
	lines := strings.Split(patchText, "\n")

	beginIdx := -1
	endIdx := -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case beginMarker:
			beginIdx = i
		case endMarker:
			endIdx = i
		}
	}

	if beginIdx == -1 || endIdx == -1 || beginIdx >= endIdx {
		return nil, &MalformedPatchError{Reason: "invalid patch format: missing Begin/End markers"}
	}

	var ops []Operation
	i := beginIdx + 1

	for i < endIdx {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, addFilePrefix):
			filePath := strings.TrimSpace(strings.TrimPrefix(line, addFilePrefix))
			contents, next := parseAddContents(lines, i+1, endIdx)
			ops = append(ops, &AddOp{FilePath: filePath, Contents: contents})
			i = next

		case strings.HasPrefix(line, deleteFilePrefix):
			filePath := strings.TrimSpace(strings.TrimPrefix(line, deleteFilePrefix))
			ops = append(ops, &DeleteOp{FilePath: filePath})
			i++

		case strings.HasPrefix(line, updateFilePrefix):
			filePath := strings.TrimSpace(strings.TrimPrefix(line, updateFilePrefix))
			i++

			var movePath string
			if i < len(lines) && strings.HasPrefix(lines[i], moveToPrefix) {
				movePath = strings.TrimSpace(strings.TrimPrefix(lines[i], moveToPrefix))
				i++
			}

			chunks, next := parseUpdateChunks(lines, i, endIdx)
			ops = append(ops, &UpdateOp{FilePath: filePath, MovePath: movePath, Chunks: chunks})
			i = next

		default:
			i++
		}
	}

	if len(ops) == 0 {
		return nil, &MalformedPatchError{Reason: "no file changes found in patch"}
	}

	return ops, nil
}

// parseAddContents collects the body of an Add File operation. Only lines
// prefixed with "+" contribute content; collection stops at the next "***"
// line.
func parseAddContents(lines []string, start, end int) (string, int) {
	var content []string
	i := start

	for i < end && !strings.HasPrefix(lines[i], "***") {
		if strings.HasPrefix(lines[i], "+") {
			content = append(content, lines[i][1:])
		}
		i++
	}

	return strings.Join(content, "\n"), i
}

// parseUpdateChunks collects the chunks of an Update File operation. A
// chunk starts either at an "@@" context line or directly at a "-", "+"
// or " " change line; collection stops at the next "***" line.
func parseUpdateChunks(lines []string, start, end int) ([]Chunk, int) {
	var chunks []Chunk
	i := start

	for i < end && !strings.HasPrefix(lines[i], "***") {
		switch {
		case strings.HasPrefix(lines[i], "@@"):
			context := strings.TrimSpace(strings.TrimPrefix(lines[i], "@@"))
			chunk, next := parseChunkBody(lines, i+1, end, false)
			chunk.Context = context
			chunks = append(chunks, chunk)
			i = next

		case strings.HasPrefix(lines[i], "-"), strings.HasPrefix(lines[i], "+"), strings.HasPrefix(lines[i], " "):
			chunk, next := parseChunkBody(lines, i, end, true)
			chunks = append(chunks, chunk)
			i = next

		default:
			i++
		}
	}

	return chunks, i
}

// parseChunkBody accumulates change lines into a chunk until a boundary.
// Hinted chunks (after "@@") tolerate unrecognized lines; anonymous chunks
// end at the first one. An "*** End of File" line marks the chunk as
// anchored to the end of the file and closes it.
func parseChunkBody(lines []string, start, end int, anonymous bool) (Chunk, int) {
	var chunk Chunk
	i := start

	for i < end {
		line := lines[i]

		if line == endOfFileMarker {
			chunk.IsEndOfFile = true
			i++
			break
		}
		if strings.HasPrefix(line, "@@") || strings.HasPrefix(line, "***") {
			break
		}

		switch {
		case strings.HasPrefix(line, " "):
			// Keep line, present in both old and new.
			content := line[1:]
			chunk.OldLines = append(chunk.OldLines, content)
			chunk.NewLines = append(chunk.NewLines, content)
		case strings.HasPrefix(line, "-"):
			chunk.OldLines = append(chunk.OldLines, line[1:])
		case strings.HasPrefix(line, "+"):
			chunk.NewLines = append(chunk.NewLines, line[1:])
		default:
			if anonymous {
				return chunk, i
			}
		}

		i++
	}

	return chunk, i
}
