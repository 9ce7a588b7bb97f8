package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sokinpui/apf/internal/config"
)

// Config holds all the command-line flag values.
type Config struct {
	WorkDir    string
	File       string
	ConfigPath string
	Check      bool
	ShowDiff   bool
	Plain      bool
	NoState    bool
	NoReload   bool
	Undo       bool
	Redo       bool
}

// ParseFlags defines and parses command-line flags using pflag, then fills
// unset flags from the configuration file.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	// Define flags
	pflag.StringVarP(&cfg.WorkDir, "workdir", "w", "", "Apply the patch relative to this directory instead of the current one.")
	pflag.StringVarP(&cfg.File, "file", "f", "", "Read the patch from a file ('-' reads stdin).")
	pflag.StringVar(&cfg.ConfigPath, "config", "", "Load settings from this config file.")
	pflag.BoolVarP(&cfg.Check, "check", "c", false, "Validate the patch and report what would change without writing any files.")
	pflag.BoolVarP(&cfg.ShowDiff, "diff", "d", false, "Print a colored diff of every change.")
	pflag.BoolVar(&cfg.Plain, "plain", false, "Disable the loading spinner and print plain summaries.")
	pflag.BoolVar(&cfg.NoState, "no-state", false, "Do not record the patch in the undo history.")
	pflag.BoolVar(&cfg.NoReload, "no-reload", false, "Do not reload changed buffers in a running Neovim instance.")

	// Mutually exclusive history group
	pflag.BoolVarP(&cfg.Undo, "undo", "u", false, "Undo the last applied patch.")
	pflag.BoolVarP(&cfg.Redo, "redo", "r", false, "Redo the last undone patch.")

	pflag.Usage = func() {
		fmt.Println("Usage: apf [flags]")
		fmt.Println("\nApply a patch document from stdin (pipe), a file or the clipboard to files on disk.")
		fmt.Println("\nExample: pbpaste | apf --diff")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	// Validate mutually exclusive flags
	if cfg.Undo && cfg.Redo {
		return nil, fmt.Errorf("error: --undo and --redo are mutually exclusive")
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyConfigFile fills flag values the user did not set on the command
// line from the configuration file.
func applyConfigFile(cfg *Config) error {
	var fileCfg *config.Config
	var err error
	if cfg.ConfigPath != "" {
		fileCfg, err = config.Load(cfg.ConfigPath)
	} else {
		fileCfg, err = config.Discover()
	}
	if err != nil {
		return err
	}

	flags := pflag.CommandLine
	if !flags.Changed("workdir") && fileCfg.WorkDir != "" {
		cfg.WorkDir = fileCfg.WorkDir
	}
	if !flags.Changed("plain") && fileCfg.Plain {
		cfg.Plain = true
	}
	if !flags.Changed("diff") && fileCfg.ShowDiff {
		cfg.ShowDiff = true
	}
	if !flags.Changed("no-state") && fileCfg.NoState {
		cfg.NoState = true
	}
	if !flags.Changed("no-reload") && fileCfg.NoReload {
		cfg.NoReload = true
	}
	return nil
}
