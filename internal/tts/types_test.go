package tts

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"edge", KindRemote, false},
		{"", KindRemote, false},
		{" Online ", KindRemote, false},
		{"local", KindLocal, false},
		{"pyttsx3", KindLocal, false},
		{"SAPI", KindLocal, false},
		{"piper", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownEngine) {
				t.Errorf("ParseKind(%q) error = %v, want ErrUnknownEngine", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindRemote, KindLocal} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("hello")
	if a != CacheKey("hello") {
		t.Error("CacheKey is not stable")
	}
	if a == CacheKey("hello.") {
		t.Error("different text produced the same key")
	}
	if len(a) != 32 {
		t.Errorf("len(CacheKey) = %d, want 32", len(a))
	}

	req := NewRequest("**hello**", "hello")
	if req.Key != a || req.Raw != "**hello**" {
		t.Errorf("NewRequest() = %+v", req)
	}
}

func TestVoices(t *testing.T) {
	if got := len(Voices(KindRemote)); got != 4 {
		t.Errorf("remote voices = %d, want 4", got)
	}
	if got := len(Voices(KindLocal)); got != 2 {
		t.Errorf("local voices = %d, want 2", got)
	}

	// Callers get a copy.
	v := Voices(KindRemote)
	v[0].Name = "mutated"
	if Voices(KindRemote)[0].Name != DefaultRemoteVoice {
		t.Error("Voices returned the shared table")
	}

	tests := []struct {
		name string
		kind Kind
		ok   bool
	}{
		{"aria", KindRemote, true},
		{" Christopher", KindRemote, true},
		{"zira", KindLocal, true},
		{"DAVID", KindLocal, true},
		{"hal", 0, false},
	}
	for _, tt := range tests {
		got, ok := KindForVoice(tt.name)
		if ok != tt.ok || (ok && got != tt.kind) {
			t.Errorf("KindForVoice(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.kind, tt.ok)
		}
	}
}

func TestNewBackend(t *testing.T) {
	d := Deps{
		Speaker:     &fakeSpeaker{},
		Generator:   &fakeGenerator{},
		Player:      &fakePlayer{},
		ArtifactDir: t.TempDir(),
		Voice:       "guy",
		Rate:        600,
	}

	b, err := New(KindRemote, d)
	if err != nil {
		t.Fatalf("New(remote) error = %v", err)
	}
	defer b.Close()
	if b.Kind() != KindRemote || b.Voice() != "guy" || b.Rate() != 600 {
		t.Errorf("remote backend = %s %s %d", b.Kind(), b.Voice(), b.Rate())
	}
	if _, ok := b.(Prefetcher); !ok {
		t.Error("remote backend should prefetch")
	}

	d.Voice = "david"
	b, err = New(KindLocal, d)
	if err != nil {
		t.Fatalf("New(local) error = %v", err)
	}
	defer b.Close()
	if b.Kind() != KindLocal || b.Voice() != "david" {
		t.Errorf("local backend = %s %s", b.Kind(), b.Voice())
	}

	if _, err := New(Kind(7), d); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("New(7) error = %v, want ErrUnknownEngine", err)
	}
}
