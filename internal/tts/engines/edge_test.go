package engines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ityeti/herald/internal/tts"
)

// scriptedRunner stands in for the edge-tts process.
type scriptedRunner struct {
	mu    sync.Mutex
	calls [][]string
	// results are consumed in order; the last one repeats.
	results []func(outPath string) error
}

func (r *scriptedRunner) run(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, args)
	i := min(len(r.calls), len(r.results)) - 1
	step := r.results[i]
	r.mu.Unlock()

	var out string
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "--write-media="); ok {
			out = v
		}
	}
	return nil, step(out)
}

func writes(data string) func(string) error {
	return func(p string) error { return os.WriteFile(p, []byte(data), 0o644) }
}

func fails(msg string) func(string) error {
	return func(string) error { return errors.New(msg) }
}

func newTestEdge(r *scriptedRunner) *EdgeGenerator {
	e := NewEdgeGenerator(EdgeConfig{RequestsPerMinute: 6000, Attempts: 3})
	e.backoff = time.Millisecond
	e.run = r.run
	return e
}

func TestNewEdgeGenerator_Defaults(t *testing.T) {
	e := NewEdgeGenerator(EdgeConfig{})
	if e.binary != DefaultEdgeBinary {
		t.Errorf("binary = %q, want %q", e.binary, DefaultEdgeBinary)
	}
	if e.timeout != DefaultEdgeTimeout {
		t.Errorf("timeout = %v, want %v", e.timeout, DefaultEdgeTimeout)
	}
	if e.attempts != DefaultEdgeAttempts {
		t.Errorf("attempts = %d, want %d", e.attempts, DefaultEdgeAttempts)
	}
}

func TestEdgeArgs(t *testing.T) {
	args := edgeArgs("-dash first", "en-US-AriaNeural", "-50%", "/tmp/out.mp3")
	want := []string{
		"--voice=en-US-AriaNeural",
		"--rate=-50%",
		"--text=-dash first",
		"--write-media=/tmp/out.mp3",
	}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("edgeArgs() = %q, want %q", args, want)
	}
}

func TestEdgeGenerator_Generate(t *testing.T) {
	tests := []struct {
		name      string
		results   []func(string) error
		wantCalls int
		wantErr   error
	}{
		{
			name:      "first attempt succeeds",
			results:   []func(string) error{writes("mp3")},
			wantCalls: 1,
		},
		{
			name:      "retries after failure",
			results:   []func(string) error{fails("503"), writes("mp3")},
			wantCalls: 2,
		},
		{
			name:      "empty output is retried then reported",
			results:   []func(string) error{writes("")},
			wantCalls: 3,
			wantErr:   tts.ErrEmptyArtifact,
		},
		{
			name:      "gives up after all attempts",
			results:   []func(string) error{fails("offline")},
			wantCalls: 3,
			wantErr:   tts.ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{results: tt.results}
			e := newTestEdge(r)
			out := filepath.Join(t.TempDir(), "out.mp3")

			err := e.Generate(context.Background(), "Hello", "en-US-GuyNeural", "+0%", out)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if len(r.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(r.calls), tt.wantCalls)
			}
		})
	}
}

func TestEdgeGenerator_RejectsBadText(t *testing.T) {
	r := &scriptedRunner{results: []func(string) error{writes("mp3")}}
	e := newTestEdge(r)

	if err := e.Generate(context.Background(), "  ", "v", "+0%", "x.mp3"); err == nil {
		t.Error("expected error for empty text")
	}
	long := strings.Repeat("a", maxEdgeTextSize+1)
	if err := e.Generate(context.Background(), long, "v", "+0%", "x.mp3"); err == nil {
		t.Error("expected error for oversized text")
	}
	if len(r.calls) != 0 {
		t.Errorf("runner called %d times for rejected text", len(r.calls))
	}
}

func TestEdgeGenerator_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &scriptedRunner{results: []func(string) error{func(string) error {
		cancel()
		return context.Canceled
	}}}
	e := newTestEdge(r)

	err := e.Generate(ctx, "Hello", "v", "+0%", filepath.Join(t.TempDir(), "o.mp3"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
	if len(r.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(r.calls))
	}
}

func TestEdgeGenerator_TimeoutIsRetryable(t *testing.T) {
	r := &scriptedRunner{results: []func(string) error{func(string) error {
		return context.DeadlineExceeded
	}}}
	e := newTestEdge(r)
	e.attempts = 1

	err := e.Generate(context.Background(), "Hello", "v", "+0%", filepath.Join(t.TempDir(), "o.mp3"))
	var serr *tts.SpeechError
	if !errors.As(err, &serr) || !serr.IsRetryable() {
		t.Errorf("Generate() error = %v, want retryable SpeechError", err)
	}
}
