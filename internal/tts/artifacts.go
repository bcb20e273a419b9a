package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Generated audio lives in files named herald_<uuid>.mp3 so leftovers from a
// crashed run can be recognized and swept.
const (
	artifactPrefix = "herald_"
	artifactExt    = ".mp3"
)

// DefaultArtifactDir returns the directory used when none is configured.
func DefaultArtifactDir() string {
	return filepath.Join(os.TempDir(), "herald")
}

func newArtifactPath(dir string) string {
	return filepath.Join(dir, artifactPrefix+uuid.NewString()+artifactExt)
}

// artifactReady reports whether path exists and holds data.
func artifactReady(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// SweepArtifacts removes audio files left behind by a previous process and
// returns how many were deleted.
func SweepArtifacts(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, artifactPrefix+"*"+artifactExt))
	if err != nil {
		return 0, fmt.Errorf("unable to list artifacts: %w", err)
	}

	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			log.Warn("Could not remove stale artifact", "path", m, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info("Removed stale audio artifacts", "count", removed, "dir", dir)
	}
	return removed, nil
}
