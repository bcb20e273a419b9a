package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	bytesPerSample = 2
	decodeChannels = 2
)

// DecodeMP3 reads a whole MP3 stream and returns 16-bit little-endian PCM
// at sampleRate with the given channel count.
func DecodeMP3(r io.Reader, sampleRate, channels int) ([]byte, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode mp3: %w", err)
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("unable to read mp3 frames: %w", err)
	}

	samples := toSamples(pcm)
	samples = resample(samples, decodeChannels, d.SampleRate(), sampleRate)
	if channels == 1 {
		samples = downmix(samples)
	}
	return fromSamples(samples), nil
}

// Duration returns the play time of pcm at the given format.
func Duration(pcm []byte, sampleRate, channels int) time.Duration {
	frames := len(pcm) / (channels * bytesPerSample)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

func toSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/bytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

func fromSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// resample converts interleaved samples between rates by linear
// interpolation.
func resample(samples []int16, channels, from, to int) []int16 {
	if from == to || from <= 0 || len(samples) == 0 {
		return samples
	}

	inFrames := len(samples) / channels
	outFrames := int(int64(inFrames) * int64(to) / int64(from))
	out := make([]int16, outFrames*channels)
	step := float64(from) / float64(to)

	for f := range outFrames {
		pos := float64(f) * step
		i := int(pos)
		frac := pos - float64(i)
		j := min(i+1, inFrames-1)
		for c := range channels {
			a := float64(samples[i*channels+c])
			b := float64(samples[j*channels+c])
			out[f*channels+c] = int16(math.Round(a + (b-a)*frac))
		}
	}
	return out
}

// downmix averages stereo pairs into mono.
func downmix(samples []int16) []int16 {
	out := make([]int16, len(samples)/2)
	for i := range out {
		out[i] = int16((int32(samples[2*i]) + int32(samples[2*i+1])) / 2)
	}
	return out
}

// Tone renders a sine wave with short fades so it does not click.
func Tone(freq float64, d time.Duration, sampleRate, channels int) []byte {
	frames := int(d.Seconds() * float64(sampleRate))
	fade := min(frames/10, sampleRate/100)
	samples := make([]int16, frames*channels)

	for f := range frames {
		amp := 0.3
		if f < fade {
			amp *= float64(f) / float64(fade)
		} else if f >= frames-fade {
			amp *= float64(frames-f) / float64(fade)
		}
		v := int16(amp * math.MaxInt16 * math.Sin(2*math.Pi*freq*float64(f)/float64(sampleRate)))
		for c := range channels {
			samples[f*channels+c] = v
		}
	}
	return fromSamples(samples)
}
