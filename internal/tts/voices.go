package tts

import "strings"

// Voice is an entry in a backend's fixed voice table.
type Voice struct {
	// Name is the short key stored in settings.
	Name string
	// ID is what the engine itself understands.
	ID     string
	Label  string
	Female bool
	Kind   Kind
}

const (
	DefaultRemoteVoice = "aria"
	DefaultLocalVoice  = "zira"
)

var remoteVoices = []Voice{
	{Name: "aria", ID: "en-US-AriaNeural", Label: "Aria (US, female)", Female: true, Kind: KindRemote},
	{Name: "jenny", ID: "en-US-JennyNeural", Label: "Jenny (US, female)", Female: true, Kind: KindRemote},
	{Name: "guy", ID: "en-US-GuyNeural", Label: "Guy (US, male)", Kind: KindRemote},
	{Name: "christopher", ID: "en-US-ChristopherNeural", Label: "Christopher (US, male)", Kind: KindRemote},
}

var localVoices = []Voice{
	{Name: "zira", ID: "Microsoft Zira Desktop", Label: "Zira (offline, female)", Female: true, Kind: KindLocal},
	{Name: "david", ID: "Microsoft David Desktop", Label: "David (offline, male)", Kind: KindLocal},
}

// Voices returns the voice table for kind.
func Voices(k Kind) []Voice {
	src := remoteVoices
	if k == KindLocal {
		src = localVoices
	}
	out := make([]Voice, len(src))
	copy(out, src)
	return out
}

// AllVoices returns every known voice, remote first.
func AllVoices() []Voice {
	return append(Voices(KindRemote), Voices(KindLocal)...)
}

// LookupVoice finds a voice by short name in either table.
func LookupVoice(name string) (Voice, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range AllVoices() {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// DefaultVoice returns the fallback voice for kind.
func DefaultVoice(k Kind) Voice {
	if k == KindLocal {
		return localVoices[0]
	}
	return remoteVoices[0]
}

func lookupVoiceOf(k Kind, name string) (Voice, bool) {
	v, ok := LookupVoice(name)
	if !ok || v.Kind != k {
		return Voice{}, false
	}
	return v, true
}
