package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ityeti/herald/internal/tts"
)

// Defaults for the edge-tts client.
const (
	DefaultEdgeBinary            = "edge-tts"
	DefaultEdgeRequestsPerMinute = 120
	DefaultEdgeTimeout           = 30 * time.Second
	DefaultEdgeAttempts          = 3
)

// maxEdgeTextSize keeps a single request well inside the service limits.
const maxEdgeTextSize = 5000

// EdgeGenerator renders neural speech to MP3 files with the edge-tts CLI.
type EdgeGenerator struct {
	binary   string
	timeout  time.Duration
	attempts int
	backoff  time.Duration

	// Rate limiting to avoid being throttled by the service
	limiter *rate.Limiter

	run commandRunner
}

// EdgeConfig holds configuration for the edge-tts generator.
type EdgeConfig struct {
	// Binary is the edge-tts executable - defaults to "edge-tts"
	Binary string

	// RequestsPerMinute caps generation requests - defaults to 120
	RequestsPerMinute int

	// Timeout bounds one attempt - defaults to 30s
	Timeout time.Duration

	// Attempts is the number of tries before giving up - defaults to 3
	Attempts int
}

// NewEdgeGenerator creates an edge-tts generator.
func NewEdgeGenerator(config EdgeConfig) *EdgeGenerator {
	if config.Binary == "" {
		config.Binary = DefaultEdgeBinary
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultEdgeRequestsPerMinute
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultEdgeTimeout
	}
	if config.Attempts <= 0 {
		config.Attempts = DefaultEdgeAttempts
	}

	return &EdgeGenerator{
		binary:   config.Binary,
		timeout:  config.Timeout,
		attempts: config.Attempts,
		backoff:  time.Second,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
		run:      runCommand,
	}
}

// Generate implements tts.Generator. speed is a signed percentage such as
// "+25%".
func (e *EdgeGenerator) Generate(ctx context.Context, text, voiceID, speed, outPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > maxEdgeTextSize {
		return fmt.Errorf("text too long: %d bytes (max %d)", len(text), maxEdgeTextSize)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	args := edgeArgs(text, voiceID, speed, outPath)

	var lastErr error
	for attempt := range e.attempts {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * e.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			log.Debug("Retrying speech generation", "attempt", attempt+1, "err", lastErr)
		}

		lastErr = e.attempt(ctx, args, outPath)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", tts.ErrGenerationFailed, e.attempts, lastErr)
}

func (e *EdgeGenerator) attempt(ctx context.Context, args []string, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	_, err := e.run(ctx, "", e.binary, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return tts.NewSpeechError(tts.ErrorCodeTimeout,
				fmt.Sprintf("edge-tts timed out after %s", e.timeout), err)
		}
		return tts.NewSpeechError(tts.ErrorCodeGeneration, "edge-tts failed", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("%w: %w", tts.ErrEmptyArtifact, err)
	}
	if info.Size() == 0 {
		return tts.ErrEmptyArtifact
	}
	return nil
}

// edgeArgs builds the command line. Values are attached with '=' because a
// speed like "-50%" or text starting with a dash would otherwise be parsed
// as a flag.
func edgeArgs(text, voiceID, speed, outPath string) []string {
	return []string{
		"--voice=" + voiceID,
		"--rate=" + speed,
		"--text=" + text,
		"--write-media=" + outPath,
	}
}

var _ tts.Generator = (*EdgeGenerator)(nil)
