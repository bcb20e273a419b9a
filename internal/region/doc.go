// Package region keeps a persistent screen rectangle selected by the user
// and reads it with OCR, either on demand or from a background poll loop
// that reports when the visible text changes.
package region
