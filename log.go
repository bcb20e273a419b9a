package main

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/ityeti/herald/internal/logging"
)

var logCloser io.Closer

func getLogDir() (string, error) {
	path, err := gap.NewScope(gap.User, "herald").LogPath(logging.FileName)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Dir(path), nil
}

func setupLog(stderr bool) error {
	if logCloser != nil {
		return nil
	}

	dir, err := getLogDir()
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	c, err := logging.Setup(logging.Options{Dir: dir, Level: level, Stderr: stderr})
	if err != nil {
		return err //nolint:wrapcheck
	}
	logCloser = c
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
	}
}
