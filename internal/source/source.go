package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/apf/internal/ui"
)

// SourceProvider determines and retrieves the patch source content.
type SourceProvider struct {
	filePath string
}

// New creates a SourceProvider. A non-empty filePath selects file input;
// "-" forces stdin. Otherwise content comes from stdin when piped, or the
// clipboard.
func New(filePath string) *SourceProvider {
	return &SourceProvider{filePath: filePath}
}

// GetContent retrieves the raw source text.
func (sp *SourceProvider) GetContent() (string, error) {
	if sp.filePath != "" && sp.filePath != "-" {
		ui.Header("--- Reading from %s ---", sp.filePath)
		content, err := os.ReadFile(sp.filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read patch file: %w", err)
		}
		return string(content), nil
	}

	stat, _ := os.Stdin.Stat()
	isPiped := (stat.Mode() & os.ModeCharDevice) == 0

	if isPiped || sp.filePath == "-" {
		ui.Header("--- Reading from stdin ---")
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	ui.Header("--- Reading from clipboard ---")
	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}
