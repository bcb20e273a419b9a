package tts

import (
	"fmt"
	"math"
)

// Speech rates are words per minute.
const (
	DefaultRate = 500
	RateStep    = 25

	LocalMinRate = 150
	LocalMaxRate = 1500

	RemoteMinRate = 150
	RemoteMaxRate = 900
)

// The remote service takes a percentage modifier instead of wpm. Its voices
// read at roughly RemoteBaselineRate at +0%, and anything outside
// [RemoteMinPercent, RemoteMaxPercent] is either inaudible as a change or
// unintelligible.
const (
	RemoteBaselineRate = 300
	RemoteMinPercent   = -50
	RemoteMaxPercent   = 200
)

// RateRange returns the valid wpm range for a backend kind.
func RateRange(k Kind) (lo, hi int) {
	if k == KindLocal {
		return LocalMinRate, LocalMaxRate
	}
	return RemoteMinRate, RemoteMaxRate
}

// ClampRate limits wpm to the range of kind.
func ClampRate(k Kind, wpm int) int {
	lo, hi := RateRange(k)
	return min(max(wpm, lo), hi)
}

// RatePercent maps wpm linearly onto the remote modifier, anchored at
// RemoteBaselineRate = 0% and clamped to the service range.
func RatePercent(wpm int) int {
	pct := float64(wpm-RemoteBaselineRate) / RemoteBaselineRate * 100
	return min(max(int(math.Round(pct)), RemoteMinPercent), RemoteMaxPercent)
}

// FormatRate renders a percentage modifier the way the service expects.
func FormatRate(pct int) string {
	return fmt.Sprintf("%+d%%", pct)
}
