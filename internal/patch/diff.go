package patch

import "strings"

// generateDiff renders a minimal diff between two versions of a file. The
// comparison is index-aligned line by line; it makes no attempt to detect
// moved regions.
func generateDiff(filePath, oldContent, newContent string) string {
	diffLines := []string{
		"--- " + filePath,
		"+++ " + filePath,
		"@@ -1 +1 @@",
	}

	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	maxLen := len(oldLines)
	if len(newLines) > maxLen {
		maxLen = len(newLines)
	}

	for i := 0; i < maxLen; i++ {
		var oldLine, newLine string
		if i < len(oldLines) {
			oldLine = oldLines[i]
		}
		if i < len(newLines) {
			newLine = newLines[i]
		}

		if oldLine != newLine {
			if oldLine != "" {
				diffLines = append(diffLines, "-"+oldLine)
			}
			if newLine != "" {
				diffLines = append(diffLines, "+"+newLine)
			}
		} else if oldLine != "" {
			diffLines = append(diffLines, " "+oldLine)
		}
	}

	return strings.Join(diffLines, "\n")
}
