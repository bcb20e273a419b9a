package tts

import (
	"errors"
	"fmt"
)

// Common speech errors
var (
	// ErrUnknownVoice indicates a voice name outside the backend's table
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrUnknownEngine indicates an engine name that maps to no backend kind
	ErrUnknownEngine = errors.New("unknown speech engine")

	// ErrGenerationFailed indicates the remote service produced no audio
	ErrGenerationFailed = errors.New("speech generation failed")

	// ErrEmptyArtifact indicates generation finished but left an empty or missing file
	ErrEmptyArtifact = errors.New("generated audio file is empty or missing")

	// ErrPlaybackFailed indicates the audio player could not play an artifact
	ErrPlaybackFailed = errors.New("audio playback failed")

	// ErrNoPlayer indicates a remote backend was built without an audio player
	ErrNoPlayer = errors.New("no audio player configured")

	// ErrNoSpeaker indicates a local backend was built without a speaker
	ErrNoSpeaker = errors.New("no local speaker configured")

	// ErrClosed indicates the backend has been closed
	ErrClosed = errors.New("speech backend is closed")
)

// SpeechError represents a speech failure with additional context
type SpeechError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *SpeechError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SpeechError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	ErrorCodeGeneration ErrorCode = "GENERATION_FAILURE"
	ErrorCodeTimeout    ErrorCode = "GENERATION_TIMEOUT"
	ErrorCodePlayback   ErrorCode = "PLAYBACK_FAILURE"
	ErrorCodeSettings   ErrorCode = "SETTINGS_FAILURE"
)

// NewSpeechError creates a new speech error
func NewSpeechError(code ErrorCode, message string, cause error) *SpeechError {
	return &SpeechError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable returns true if the operation can be retried
func (e *SpeechError) IsRetryable() bool {
	return e.Code == ErrorCodeTimeout
}
