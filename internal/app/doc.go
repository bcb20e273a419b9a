// Package app is the speech session: it binds hotkeys to the line queue,
// the region watcher and the current speech backend, drives auto-advance
// from a fixed tick, and reflects state changes to the status surface.
package app
