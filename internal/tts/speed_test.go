package tts

import "testing"

func TestClampRate(t *testing.T) {
	tests := []struct {
		kind Kind
		in   int
		want int
	}{
		{KindLocal, 100, 150},
		{KindLocal, 500, 500},
		{KindLocal, 1500, 1500},
		{KindLocal, 2000, 1500},
		{KindRemote, 0, 150},
		{KindRemote, 900, 900},
		{KindRemote, 1200, 900},
	}

	for _, tt := range tests {
		if got := ClampRate(tt.kind, tt.in); got != tt.want {
			t.Errorf("ClampRate(%s, %d) = %d, want %d", tt.kind, tt.in, got, tt.want)
		}
	}
}

func TestRatePercent(t *testing.T) {
	tests := []struct {
		wpm  int
		want string
	}{
		{150, "-50%"},
		{100, "-50%"},
		{300, "+0%"},
		{450, "+50%"},
		{500, "+67%"},
		{900, "+200%"},
		{1500, "+200%"},
	}

	for _, tt := range tests {
		if got := FormatRate(RatePercent(tt.wpm)); got != tt.want {
			t.Errorf("FormatRate(RatePercent(%d)) = %q, want %q", tt.wpm, got, tt.want)
		}
	}
}
