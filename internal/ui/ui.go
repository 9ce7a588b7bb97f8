package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

// --- Summaries ---

func printGroup(label string, paths []string, printLabel func(string, ...interface{})) {
	if len(paths) == 0 {
		return
	}
	printLabel("%s %d file(s):", label, len(paths))
	for _, f := range paths {
		fmt.Printf("  - %s\n", f)
	}
}

func PrintApplySummary(created, updated, moved, deleted, failed []string) {
	Header("\n--- Patch Summary ---")

	if len(created) == 0 && len(updated) == 0 && len(moved) == 0 && len(deleted) == 0 && len(failed) == 0 {
		Info("No files were changed.")
		return
	}

	printGroup("Created", created, Success)
	printGroup("Updated", updated, Success)
	printGroup("Moved", moved, Success)
	printGroup("Deleted", deleted, Success)
	printGroup("Failed to patch", failed, Error)
}

func PrintRevertSummary(reverted, failed []string) {
	Header("\n--- Revert Summary ---")
	printGroup("Successfully reverted", reverted, Success)
	printGroup("Failed to revert", failed, Error)
}

func PrintRedoSummary(redone, failed []string) {
	Header("\n--- Redo Summary ---")
	printGroup("Successfully redid", redone, Success)
	printGroup("Failed to redo", failed, Error)
}

// --- Progress Bar ---

type ProgressBar struct {
	total   int
	prefix  string
	current int
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{total: total, prefix: prefix}
}

func (p *ProgressBar) Start() {
	p.draw()
}

func (p *ProgressBar) Increment() {
	p.current++
	p.draw()
}

func (p *ProgressBar) Set(current int) {
	p.current = current
	p.draw()
}

func (p *ProgressBar) Finish() {
	fmt.Fprintln(os.Stderr)
}

func (p *ProgressBar) draw() {
	if p.total == 0 {
		return
	}
	const barLength = 40
	percent := float64(p.current) / float64(p.total)
	filledLength := int(percent * barLength)
	bar := strings.Repeat("█", filledLength) + strings.Repeat("-", barLength-filledLength)

	percentStr := fmt.Sprintf("%.1f%%", percent*100)
	countStr := fmt.Sprintf("[%d/%d]", p.current, p.total)

	fmt.Fprintf(os.Stderr, "\r%s |%s| %s %s", p.prefix, bar, countStr, percentStr)
}
