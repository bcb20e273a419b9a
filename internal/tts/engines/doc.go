// Package engines contains the concrete speech engines behind the backends in
// the parent package: the edge-tts command line client for neural voices and
// the platform's offline synthesizer (SAPI on Windows, espeak-ng or say
// elsewhere).
package engines
