// Package settings persists the user's runtime preferences (engine, voice,
// rate, hotkeys and reading options) in a JSON file. Missing keys are filled
// from defaults, a corrupt file is replaced with defaults, every change is
// written through immediately, and edits made by hand are picked up while
// the program runs.
package settings
