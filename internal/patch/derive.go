package patch

import "strings"

// Replacement substitutes NewSegment for the OldLen lines starting at
// StartIdx.
type Replacement struct {
	StartIdx   int
	OldLen     int
	NewSegment []string
}

// computeReplacements resolves update chunks against the original lines
// into concrete line-range replacements.
//
// A cursor tracks the position after the last resolved chunk so that
// identical chunks match successive occurrences instead of resolving to
// the same region twice. Context hints move the cursor without consuming
// lines.
func computeReplacements(originalLines []string, filePath string, chunks []Chunk) ([]Replacement, error) {
	var replacements []Replacement
	lineIndex := 0

	for _, chunk := range chunks {
		if chunk.Context != "" {
			contextIdx := seekSequence(originalLines, []string{chunk.Context}, lineIndex)
			if contextIdx == -1 {
				return nil, &ContextNotFoundError{Context: chunk.Context, Path: filePath}
			}
			lineIndex = contextIdx
		}

		// A chunk with no old lines is a pure insertion at the end of the
		// file, placed before the trailing blank line when one exists.
		if len(chunk.OldLines) == 0 {
			insertionIdx := len(originalLines)
			if len(originalLines) > 0 && originalLines[len(originalLines)-1] == "" {
				insertionIdx = len(originalLines) - 1
			}
			replacements = append(replacements, Replacement{
				StartIdx:   insertionIdx,
				OldLen:     0,
				NewSegment: chunk.NewLines,
			})
			continue
		}

		pattern := chunk.OldLines
		newSegment := chunk.NewLines
		found := seekSequence(originalLines, pattern, lineIndex)

		// Retry without a dangling trailing blank line, dropping it from
		// both sides of the chunk.
		if found == -1 && pattern[len(pattern)-1] == "" {
			pattern = pattern[:len(pattern)-1]
			if len(newSegment) > 0 && newSegment[len(newSegment)-1] == "" {
				newSegment = newSegment[:len(newSegment)-1]
			}
			found = seekSequence(originalLines, pattern, lineIndex)
		}

		if found == -1 {
			return nil, &LinesNotFoundError{Path: filePath, Lines: chunk.OldLines}
		}

		replacements = append(replacements, Replacement{
			StartIdx:   found,
			OldLen:     len(pattern),
			NewSegment: newSegment,
		})
		lineIndex = found + len(pattern)
	}

	return replacements, nil
}

// applyReplacements splices the replacements into lines. They are applied
// in reverse order so earlier replacements keep their indices valid.
func applyReplacements(lines []string, replacements []Replacement) []string {
	result := make([]string, len(lines))
	copy(result, lines)

	for i := len(replacements) - 1; i >= 0; i-- {
		r := replacements[i]
		before := result[:r.StartIdx]
		after := result[r.StartIdx+r.OldLen:]

		next := make([]string, 0, len(before)+len(r.NewSegment)+len(after))
		next = append(next, before...)
		next = append(next, r.NewSegment...)
		next = append(next, after...)
		result = next
	}

	return result
}

// deriveNewContents applies update chunks to a file's current contents and
// returns the new contents, normalized to end with a newline.
func deriveNewContents(filePath, oldContent string, chunks []Chunk) (string, error) {
	originalLines := strings.Split(oldContent, "\n")

	// Drop the trailing empty element for consistent line counting.
	if len(originalLines) > 0 && originalLines[len(originalLines)-1] == "" {
		originalLines = originalLines[:len(originalLines)-1]
	}

	replacements, err := computeReplacements(originalLines, filePath, chunks)
	if err != nil {
		return "", err
	}

	newLines := applyReplacements(originalLines, replacements)

	if len(newLines) == 0 || newLines[len(newLines)-1] != "" {
		newLines = append(newLines, "")
	}

	return strings.Join(newLines, "\n"), nil
}
