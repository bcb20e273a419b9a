package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestOpen_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	s, err := Open(path)
	require.NoError(t, err)

	stored := readFile(t, path)
	assert.Len(t, stored, len(Defaults()))
	assert.Equal(t, "edge", stored[KeyEngine])

	got := s.Snapshot()
	assert.Equal(t, "aria", got.Voice)
	assert.Equal(t, 500, got.Rate)
	assert.Equal(t, "alt+s", got.HotkeySpeak)
	assert.Equal(t, "lines", got.ReadMode)
	assert.True(t, got.LogPreview)
	assert.Zero(t, got.LineDelay)
}

func TestOpen_MergesMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"voice": "guy", "rate": 700, "line_delay": 250}`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)

	got := s.Snapshot()
	assert.Equal(t, "guy", got.Voice)
	assert.Equal(t, 700, got.Rate)
	assert.Equal(t, 250*time.Millisecond, got.LineDelay)
	assert.Equal(t, "alt+p", got.HotkeyPause, "missing keys come from defaults")

	stored := readFile(t, path)
	assert.Equal(t, "guy", stored[KeyVoice])
	assert.Contains(t, stored, KeyHotkeyPause, "defaults are written back")
}

func TestOpen_CorruptFileRestored(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":   "{not json",
		"empty":     "",
		"truncated": `{"voice": "guy",`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			s, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, "aria", s.String(KeyVoice))
			assert.Equal(t, "aria", readFile(t, path)[KeyVoice])
		})
	}
}

func TestSet_WritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyRate, 825))
	require.NoError(t, s.Set(KeyVoice, "jenny"))

	stored := readFile(t, path)
	assert.EqualValues(t, 825, stored[KeyRate])
	assert.Equal(t, "jenny", stored[KeyVoice])

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 825, reopened.Int(KeyRate))
	assert.Equal(t, "jenny", reopened.String(KeyVoice))
}

func TestGetAndTypedFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"rate": "fast", "log_preview": "nope", "voice": ""}`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "fast", s.Get(KeyRate, nil))
	assert.Equal(t, "fallback", s.Get("unknown", "fallback"))
	assert.Equal(t, 500, s.Int(KeyRate), "unparseable values use the default")
	assert.True(t, s.Bool(KeyLogPreview))
	assert.Equal(t, "aria", s.String(KeyVoice))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(map[string]any{KeyEngine: "local", KeyVoice: "david"}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "local", loaded[KeyEngine])
	assert.Equal(t, "david", loaded[KeyVoice])
	assert.Contains(t, loaded, KeyReadMode)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Settings, 8)
	watchErr := make(chan error, 1)
	go func() { watchErr <- s.Watch(ctx, func(got Settings) { changes <- got }) }()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)

	edited := Defaults()
	edited[KeyHotkeySpeak] = "ctrl+alt+r"
	b, err := json.Marshal(edited)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	select {
	case got := <-changes:
		assert.Equal(t, "ctrl+alt+r", got.HotkeySpeak)
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
	assert.Equal(t, "ctrl+alt+r", s.String(KeyHotkeySpeak))

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
