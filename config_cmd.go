package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# log debug output
debug: false
# run without the terminal UI and read commands from stdin
headless: false
# play nothing; speech only goes to the log
silent: false

# Helper programs. Commands are split on spaces.
helpers:
  # prints {"region":[x1,y1,x2,y2]} or {"region":null} on its last line
  picker: "herald-select"
  # draws an outline; takes x1 y1 x2 y2 and exits when it reads "q"
  border: "herald-border"
  ocr: "tesseract"
  ocr_language: "eng"

engines:
  edge:
    binary: "edge-tts"
    requests_per_minute: 120
  local:
    # empty picks say on macOS and espeak-ng elsewhere; Windows uses SAPI
    binary: ""

# Auto-read of a selected screen region
region:
  poll_interval: "2.5s"
  # 0 reads every change, 1 only completely new text
  change_threshold: 0.5
  min_text_length: 3

prefetch:
  # lines rendered ahead by the online engine
  capacity: 10

audio:
  # where rendered speech is kept; empty uses the user cache dir
  dir: ""

# Voice, rate, hotkeys and reading preferences live in settings.json next
# to this file and are changed while herald runs.
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the herald config file",
	Long:    paragraph(fmt.Sprintf("\n%s the herald config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("herald config\nherald config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Herald", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
