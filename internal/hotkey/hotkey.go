// Package hotkey maps hotkey specifications such as "alt+s" to actions.
// Bindings can be changed while the program runs.
package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidSpec is returned for a spec that cannot be parsed.
	ErrInvalidSpec = errors.New("invalid hotkey")

	// ErrConflict is returned when a spec is already bound to another action.
	ErrConflict = errors.New("hotkey already bound")

	// ErrNotBound is returned by Rebind when the old spec has no binding.
	ErrNotBound = errors.New("hotkey not bound")
)

// modifierOrder is the canonical modifier order in a normalized spec.
var modifierOrder = []string{"ctrl", "alt", "shift", "super"}

var aliases = map[string]string{
	"control":  "ctrl",
	"option":   "alt",
	"meta":     "super",
	"cmd":      "super",
	"win":      "super",
	"windows":  "super",
	"esc":      "escape",
	"return":   "enter",
	"del":      "delete",
	"spacebar": "space",
}

// Normalize lowercases spec, resolves aliases and sorts modifiers so that
// equal hotkeys compare equal.
func Normalize(spec string) (string, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSpec)
	}

	var parts []string
	if strings.HasSuffix(spec, "++") || spec == "+" {
		// The key itself is '+'.
		parts = append(strings.Split(strings.TrimSuffix(spec, "++"), "+"), "+")
		if spec == "+" {
			parts = []string{"+"}
		}
	} else {
		parts = strings.Split(spec, "+")
	}

	mods := make(map[string]bool)
	keyName := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if a, ok := aliases[p]; ok {
			p = a
		}
		if slices.Contains(modifierOrder, p) {
			mods[p] = true
			continue
		}
		if keyName != "" {
			return "", fmt.Errorf("%w: %q has more than one key", ErrInvalidSpec, spec)
		}
		keyName = p
	}
	if keyName == "" {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidSpec, spec)
	}

	out := make([]string, 0, len(mods)+1)
	for _, m := range modifierOrder {
		if mods[m] {
			out = append(out, m)
		}
	}
	return strings.Join(append(out, keyName), "+"), nil
}

// Binding is an action attached to a hotkey.
type Binding struct {
	Spec    string
	Action  string
	Handler func()
}

// KeyBinding describes b for help views. Key names follow bubbletea.
func (b Binding) KeyBinding() key.Binding {
	return key.NewBinding(
		key.WithKeys(TeaKey(b.Spec)),
		key.WithHelp(b.Spec, b.Action),
	)
}

// TeaKey converts a normalized spec to the string bubbletea reports for
// that key press.
func TeaKey(spec string) string {
	parts := strings.Split(spec, "+")
	last := parts[len(parts)-1]
	switch last {
	case "escape":
		parts[len(parts)-1] = "esc"
	case "space":
		parts[len(parts)-1] = " "
	}
	return strings.Join(parts, "+")
}

// Registry holds the active bindings. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{bindings: make(map[string]Binding)}
}

// Bind attaches handler to spec under the given action name.
func (r *Registry) Bind(spec, action string, handler func()) error {
	norm, err := Normalize(spec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bindings[norm]; ok && b.Action != action {
		return fmt.Errorf("%w: %s is used by %s", ErrConflict, norm, b.Action)
	}
	r.bindings[norm] = Binding{Spec: norm, Action: action, Handler: handler}
	log.Debug("Bound hotkey", "hotkey", norm, "action", action)
	return nil
}

// Unbind removes spec and reports whether it was bound.
func (r *Registry) Unbind(spec string) bool {
	norm, err := Normalize(spec)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[norm]; !ok {
		return false
	}
	delete(r.bindings, norm)
	return true
}

// Rebind moves the action bound to oldSpec onto newSpec. On failure the
// old binding is left in place.
func (r *Registry) Rebind(oldSpec, newSpec string) error {
	oldNorm, err := Normalize(oldSpec)
	if err != nil {
		return err
	}
	newNorm, err := Normalize(newSpec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[oldNorm]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBound, oldNorm)
	}
	if oldNorm == newNorm {
		return nil
	}
	if other, ok := r.bindings[newNorm]; ok {
		return fmt.Errorf("%w: %s is used by %s", ErrConflict, newNorm, other.Action)
	}

	delete(r.bindings, oldNorm)
	b.Spec = newNorm
	r.bindings[newNorm] = b
	log.Info("Hotkey changed", "action", b.Action, "from", oldNorm, "to", newNorm)
	return nil
}

// Dispatch runs the handler bound to spec on the calling goroutine and
// reports whether one was found.
func (r *Registry) Dispatch(spec string) bool {
	b, ok := r.Lookup(spec)
	if !ok || b.Handler == nil {
		return false
	}
	log.Debug("Hotkey pressed", "hotkey", b.Spec, "action", b.Action)
	b.Handler()
	return true
}

// Lookup returns the binding for spec.
func (r *Registry) Lookup(spec string) (Binding, bool) {
	norm, err := Normalize(spec)
	if err != nil {
		return Binding{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[norm]
	return b, ok
}

// SpecFor returns the hotkey bound to action.
func (r *Registry) SpecFor(action string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for spec, b := range r.bindings {
		if b.Action == action {
			return spec, true
		}
	}
	return "", false
}

// Bindings returns every binding sorted by spec.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Binding) int { return strings.Compare(a.Spec, b.Spec) })
	return out
}
