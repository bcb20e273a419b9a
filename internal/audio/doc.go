// Package audio plays generated speech files through the sound device using
// oto/v3. MP3 artifacts are decoded with go-mp3 and resampled to the
// device rate before playback; the package also renders the fallback beep.
package audio
