package region

import (
	"image"
	"testing"
)

func TestRect(t *testing.T) {
	tests := []struct {
		name  string
		in    Rect
		canon Rect
		valid bool
	}{
		{"ordered", Rect{0, 0, 100, 50}, Rect{0, 0, 100, 50}, true},
		{"reversed", Rect{100, 50, 0, 0}, Rect{0, 0, 100, 50}, true},
		{"negative origin", Rect{-1920, -200, -1000, 300}, Rect{-1920, -200, -1000, 300}, true},
		{"exactly min", Rect{5, 5, 15, 15}, Rect{5, 5, 15, 15}, true},
		{"too narrow", Rect{0, 0, 9, 100}, Rect{0, 0, 9, 100}, false},
		{"too short", Rect{0, 0, 100, 9}, Rect{0, 0, 100, 9}, false},
		{"empty", Rect{}, Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Canon()
			if got != tt.canon {
				t.Errorf("Canon() = %v, want %v", got, tt.canon)
			}
			if got.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v", got.Valid(), tt.valid)
			}
		})
	}
}

func TestRectImage(t *testing.T) {
	r := Rect{-10, 20, 30, 60}
	want := image.Rect(-10, 20, 30, 60)
	if got := r.Image(); got != want {
		t.Errorf("Image() = %v, want %v", got, want)
	}
	if r.Width() != 40 || r.Height() != 40 {
		t.Errorf("size = %dx%d, want 40x40", r.Width(), r.Height())
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		min, max float64
	}{
		{"", "", 1, 1},
		{"hello world", "hello world", 1, 1},
		{"abcd", "wxyz", 0, 0},
		{"", "abc", 0, 0},
		// difflib ratio is 2*M/T: "abcd" vs "abce" shares 3 of 8.
		{"abcd", "abce", 0.75, 0.75},
		{"naïve café", "naive cafe", 0.7, 0.9},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("Similarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}
