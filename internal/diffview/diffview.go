package diffview

import (
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	addColor    = color.New(color.FgGreen)
	removeColor = color.New(color.FgRed)
)

// Render produces a colored line diff between two versions of a file,
// for display only. Lines are compared whole; character-level changes
// within a line show up as a remove plus an add.
func Render(path, oldContent, newContent string) string {
	dmp := diffpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	b.WriteString(headerColor.Sprintf("--- %s", path))
	b.WriteByte('\n')
	b.WriteString(headerColor.Sprintf("+++ %s", path))
	b.WriteByte('\n')

	for _, d := range diffs {
		for _, line := range segmentLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffInsert:
				b.WriteString(addColor.Sprintf("+%s", line))
			case diffpatch.DiffDelete:
				b.WriteString(removeColor.Sprintf("-%s", line))
			case diffpatch.DiffEqual:
				b.WriteString(" " + line)
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// segmentLines splits a diff segment into lines, dropping the empty
// remainder a trailing newline produces.
func segmentLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
