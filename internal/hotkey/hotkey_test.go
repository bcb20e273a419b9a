package hotkey

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alt+s", "alt+s", false},
		{"Alt+S", "alt+s", false},
		{" shift + ctrl + A ", "ctrl+shift+a", false},
		{"option+]", "alt+]", false},
		{"Escape", "escape", false},
		{"esc", "escape", false},
		{"cmd+shift+return", "shift+super+enter", false},
		{"alt++", "alt++", false},
		{"f5", "f5", false},
		{"", "", true},
		{"alt+", "", true},
		{"ctrl+shift", "", true},
		{"a+b", "", true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Normalize(%q) error = %v, want ErrInvalidSpec", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTeaKey(t *testing.T) {
	tests := map[string]string{
		"alt+s":      "alt+s",
		"escape":     "esc",
		"ctrl+space": "ctrl+ ",
		"alt+]":      "alt+]",
	}
	for in, want := range tests {
		if got := TeaKey(in); got != want {
			t.Errorf("TeaKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBindAndDispatch(t *testing.T) {
	r := New()
	var speaks, stops int

	if err := r.Bind("Alt+S", "speak", func() { speaks++ }); err != nil {
		t.Fatal(err)
	}
	if err := r.Bind("esc", "stop", func() { stops++ }); err != nil {
		t.Fatal(err)
	}

	if !r.Dispatch("alt+s") || !r.Dispatch("ESCAPE") {
		t.Fatal("bound hotkeys should dispatch")
	}
	if r.Dispatch("alt+x") {
		t.Error("unbound hotkey dispatched")
	}
	if speaks != 1 || stops != 1 {
		t.Errorf("speaks=%d stops=%d, want 1 and 1", speaks, stops)
	}

	if err := r.Bind("alt+s", "pause", nil); !errors.Is(err, ErrConflict) {
		t.Errorf("Bind conflict error = %v, want ErrConflict", err)
	}
	if err := r.Bind("alt+s", "speak", func() { speaks += 10 }); err != nil {
		t.Errorf("rebinding the same action should replace the handler: %v", err)
	}
	r.Dispatch("alt+s")
	if speaks != 11 {
		t.Errorf("speaks = %d, want 11", speaks)
	}
}

func TestUnbind(t *testing.T) {
	r := New()
	_ = r.Bind("alt+p", "pause", func() {})

	if !r.Unbind("ALT+P") {
		t.Error("Unbind should report the removed binding")
	}
	if r.Unbind("alt+p") {
		t.Error("second Unbind should report false")
	}
	if _, ok := r.Lookup("alt+p"); ok {
		t.Error("binding still present")
	}
}

func TestRebind(t *testing.T) {
	r := New()
	called := false
	_ = r.Bind("alt+s", "speak", func() { called = true })
	_ = r.Bind("alt+p", "pause", func() {})

	if err := r.Rebind("alt+s", "ctrl+alt+s"); err != nil {
		t.Fatal(err)
	}
	if r.Dispatch("alt+s") {
		t.Error("old hotkey should be gone")
	}
	r.Dispatch("alt+ctrl+s")
	if !called {
		t.Error("handler did not move with the binding")
	}
	if spec, _ := r.SpecFor("speak"); spec != "ctrl+alt+s" {
		t.Errorf("SpecFor(speak) = %q", spec)
	}

	if err := r.Rebind("ctrl+alt+s", "alt+p"); !errors.Is(err, ErrConflict) {
		t.Errorf("Rebind onto a used key = %v, want ErrConflict", err)
	}
	if _, ok := r.Lookup("ctrl+alt+s"); !ok {
		t.Error("failed rebind must keep the old binding")
	}
	if err := r.Rebind("alt+z", "alt+y"); !errors.Is(err, ErrNotBound) {
		t.Errorf("Rebind of unbound key = %v, want ErrNotBound", err)
	}
	if err := r.Rebind("ctrl+alt+s", "alt+ctrl+s"); err != nil {
		t.Errorf("Rebind to an equivalent spec should be a no-op: %v", err)
	}
}

func TestBindings(t *testing.T) {
	r := New()
	_ = r.Bind("alt+s", "speak", nil)
	_ = r.Bind("alt+b", "previous line", nil)
	_ = r.Bind("escape", "stop", nil)

	got := r.Bindings()
	want := []string{"alt+b", "alt+s", "escape"}
	if len(got) != len(want) {
		t.Fatalf("got %d bindings, want %d", len(got), len(want))
	}
	for i, b := range got {
		if b.Spec != want[i] {
			t.Errorf("Bindings()[%d] = %q, want %q", i, b.Spec, want[i])
		}
	}
	if kb := got[2].KeyBinding(); kb.Help().Desc != "stop" || kb.Keys()[0] != "esc" {
		t.Errorf("KeyBinding() = %v / %v", kb.Help(), kb.Keys())
	}
}
