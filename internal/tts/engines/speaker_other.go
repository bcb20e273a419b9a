//go:build !unix && !windows

package engines

import (
	"context"
	"errors"
	"runtime"

	"github.com/ityeti/herald/internal/tts"
)

// SystemSpeaker is unavailable on this platform.
type SystemSpeaker struct{}

// NewSystemSpeaker reports that no offline synthesizer exists here.
func NewSystemSpeaker(SystemConfig) (*SystemSpeaker, error) {
	return nil, errors.New("no offline speech synthesizer on " + runtime.GOOS)
}

// Say implements tts.Speaker.
func (s *SystemSpeaker) Say(context.Context, string, tts.Voice, int) error {
	return errors.New("no offline speech synthesizer on " + runtime.GOOS)
}
