// Package queue owns the ordered list of lines being read aloud and the
// cursor into it. It feeds one line at a time to a speech backend,
// prefetches the next line when the backend supports it, and advances on
// its own when the backend goes quiet.
package queue
