package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/apf/apf"
	"github.com/sokinpui/apf/cli"
	"github.com/sokinpui/apf/internal/tui"
	"github.com/sokinpui/apf/internal/ui"
	"github.com/sokinpui/apf/model"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := apf.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Modes that print to stdout, and explicitly plain runs, skip the TUI.
	if cfg.Check || cfg.ShowDiff || cfg.Plain {
		runPlain(app, cfg)
		return
	}

	m := tui.New(app, cfg)
	p := tea.NewProgram(m)
	m.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func runPlain(app *apf.App, cfg *cli.Config) {
	var bar *ui.ProgressBar
	app.SetProgressCallback(func(current, total int) {
		if bar == nil {
			bar = ui.NewProgressBar(total, "Processing")
			bar.Start()
		}
		bar.Set(current)
	})

	summary, err := app.Execute()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		if e, ok := err.(*apf.DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printSummary(cfg, summary)
}

func printSummary(cfg *cli.Config, summary model.Summary) {
	if summary.Message != "" {
		ui.Info("%s", summary.Message)
	}
	if summary.Total() == 0 && len(summary.Failed) == 0 {
		return
	}

	switch {
	case cfg.Undo:
		ui.PrintRevertSummary(summary.Updated, summary.Failed)
	case cfg.Redo:
		ui.PrintRedoSummary(summary.Updated, summary.Failed)
	default:
		ui.PrintApplySummary(summary.Created, summary.Updated, summary.Moved, summary.Deleted, summary.Failed)
	}
}
