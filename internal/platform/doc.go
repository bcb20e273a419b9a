// Package platform holds the operating-system collaborators: clipboard
// access, the simulated copy keystroke, the region picker and border helper
// processes, screen capture, OCR and audio device detection.
package platform
