package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ityeti/herald/internal/tts"
)

// FileName is the settings file name inside the config directory.
const FileName = "settings.json"

// DefaultPath returns the settings file location in the user config dir.
func DefaultPath() (string, error) {
	return gap.NewScope(gap.User, "herald").ConfigPath(FileName)
}

// Store is a JSON-backed key/value store. It is safe for concurrent use.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]any
}

// Open loads path, creating it with defaults when it is missing or corrupt.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the file and returns the merged preferences.
func (s *Store) Load() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readLocked(true)
	if err != nil {
		return nil, err
	}
	s.values = values
	return maps.Clone(values), nil
}

// readLocked reads the file and fills in defaults. With repair set, a
// missing or corrupt file is rewritten with defaults and missing keys are
// written back.
func (s *Store) readLocked(repair bool) (map[string]any, error) {
	r := viper.New()
	r.SetConfigFile(s.path)
	r.SetConfigType("json")

	err := r.ReadInConfig()
	var parseErr viper.ConfigParseError
	switch {
	case err == nil:
	case !repair:
		return nil, err
	case errors.Is(err, fs.ErrNotExist):
		log.Info("Creating settings file", "path", s.path)
		return s.resetLocked()
	case errors.As(err, &parseErr):
		log.Warn("Settings file is corrupt, restoring defaults", "path", s.path, "err", err)
		return s.resetLocked()
	default:
		return nil, fmt.Errorf("unable to read settings: %w", err)
	}

	values := Defaults()
	missing := false
	stored := r.AllSettings()
	for k := range values {
		if _, ok := stored[k]; !ok {
			missing = true
		}
	}
	maps.Copy(values, stored)

	if missing && repair {
		if err := s.writeLocked(values); err != nil {
			log.Warn("Unable to add default settings", "err", err)
		}
	}
	return values, nil
}

func (s *Store) resetLocked() (map[string]any, error) {
	values := Defaults()
	if err := s.writeLocked(values); err != nil {
		return nil, err
	}
	return values, nil
}

// writeLocked replaces the file with values. A throwaway viper is used so
// the store never carries viper overrides.
func (s *Store) writeLocked(values map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("unable to create settings directory: %w", err)
	}

	w := viper.New()
	w.SetConfigType("json")
	for k, v := range values {
		w.Set(k, v)
	}
	if err := w.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("unable to write settings: %w", err)
	}
	return nil
}

// Save replaces every preference with values, filling in defaults.
func (s *Store) Save(values map[string]any) error {
	merged := Defaults()
	maps.Copy(merged, values)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(merged); err != nil {
		return err
	}
	s.values = merged
	return nil
}

// Get returns the value for key, or def when it is unset.
func (s *Store) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set stores a single value and writes the file before returning.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	next[key] = value
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.values = next
	log.Debug("Saved setting", "key", key, "value", value)
	return nil
}

// String returns key as a string, falling back to its default.
func (s *Store) String(key string) string {
	v, err := cast.ToStringE(s.Get(key, nil))
	if err != nil || v == "" {
		return cast.ToString(Defaults()[key])
	}
	return v
}

// Int returns key as an int, falling back to its default.
func (s *Store) Int(key string) int {
	v, err := cast.ToIntE(s.Get(key, nil))
	if err != nil {
		return cast.ToInt(Defaults()[key])
	}
	return v
}

// Bool returns key as a bool, falling back to its default.
func (s *Store) Bool(key string) bool {
	v, err := cast.ToBoolE(s.Get(key, nil))
	if err != nil {
		return cast.ToBool(Defaults()[key])
	}
	return v
}

// Snapshot returns the typed preferences.
func (s *Store) Snapshot() Settings {
	return Settings{
		Engine:      s.String(KeyEngine),
		Voice:       s.String(KeyVoice),
		Rate:        s.Int(KeyRate),
		HotkeySpeak: s.String(KeyHotkeySpeak),
		HotkeyPause: s.String(KeyHotkeyPause),
		LineDelay:   time.Duration(max(s.Int(KeyLineDelay), 0)) * time.Millisecond,
		ReadMode:    s.String(KeyReadMode),
		LogPreview:  s.Bool(KeyLogPreview),
		FilterCode:  s.Bool(KeyFilterCode),
		AutoCopy:    s.Bool(KeyAutoCopy),
		AutoRead:    s.Bool(KeyAutoRead),
	}
}

// Watch reloads the file whenever it changes on disk and passes the new
// preferences to fn. Writes made by the store itself do not call fn. Watch
// blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	log.Debug("Watching settings", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if s.reload() {
				log.Info("Settings changed on disk", "path", s.path)
				fn(s.Snapshot())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("Settings watcher error", "err", err)
		}
	}
}

// reload re-reads the file and reports whether anything changed.
func (s *Store) reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A half-written file is skipped; the write that completes it sends
	// another event.
	values, err := s.readLocked(false)
	if err != nil {
		log.Debug("Unable to reload settings", "err", err)
		return false
	}
	if reflect.DeepEqual(normalize(values), normalize(s.values)) {
		return false
	}
	s.values = values
	return true
}

// normalize makes values read back from JSON comparable with values set
// in memory, where an int and a float64 of the same number are equal.
func normalize(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = cast.ToString(v)
	}
	return out
}

var _ tts.SettingsWriter = (*Store)(nil)
