package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalFixture(t *testing.T, speakFor time.Duration) (*Local, *fakeSpeaker, *fakeSettings) {
	t.Helper()

	speaker := &fakeSpeaker{duration: speakFor}
	settings := newFakeSettings()
	l, err := NewLocal(LocalConfig{Speaker: speaker, Settings: settings})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, speaker, settings
}

func TestNewLocal_Defaults(t *testing.T) {
	_, err := NewLocal(LocalConfig{})
	assert.ErrorIs(t, err, ErrNoSpeaker)

	l, err := NewLocal(LocalConfig{Speaker: &fakeSpeaker{}, Voice: "aria", Rate: 5000})
	require.NoError(t, err)
	assert.Equal(t, DefaultLocalVoice, l.Voice(), "remote voice names are not valid offline")
	assert.Equal(t, LocalMaxRate, l.Rate())
	assert.Equal(t, KindLocal, l.Kind())
	assert.Equal(t, Voices(KindLocal), l.Voices())
}

func TestLocal_SpeakLifecycle(t *testing.T) {
	l, speaker, _ := newLocalFixture(t, 50*time.Millisecond)

	l.Speak("Hello there")
	assert.True(t, l.IsSpeaking())
	assert.False(t, l.IsGenerating())

	require.Eventually(t, func() bool { return l.State() == StateIdle }, waitFor, tick)
	assert.Equal(t, []string{"Hello there"}, speaker.spoken())
}

func TestLocal_EmptyTextIgnored(t *testing.T) {
	l, speaker, _ := newLocalFixture(t, 0)

	l.Speak("\t ")
	assert.Equal(t, StateIdle, l.State())
	assert.Empty(t, speaker.spoken())
}

func TestLocal_StopCancelsSpeech(t *testing.T) {
	l, _, _ := newLocalFixture(t, time.Minute)

	l.Speak("a very long sentence")
	require.Eventually(t, l.IsSpeaking, waitFor, tick)

	l.Stop()
	assert.Equal(t, StateIdle, l.State())
	assert.True(t, l.life.drain(waitFor), "worker should exit after Stop")
}

func TestLocal_SpeakReplacesCurrent(t *testing.T) {
	l, speaker, _ := newLocalFixture(t, 200*time.Millisecond)

	l.Speak("first")
	l.Speak("second")
	require.Eventually(t, func() bool { return l.State() == StateIdle }, waitFor, tick)

	// The first worker is canceled before or during Say; the second always runs.
	said := speaker.spoken()
	require.NotEmpty(t, said)
	assert.Equal(t, "second", said[len(said)-1])
}

func TestLocal_PauseIsBestEffort(t *testing.T) {
	l, speaker, _ := newLocalFixture(t, time.Minute)

	l.Pause()
	assert.Equal(t, StateIdle, l.State(), "pause while idle is a no-op")

	l.Speak("Hello")
	l.Pause()
	assert.True(t, l.IsPaused())
	speaker.mu.Lock()
	assert.Equal(t, 1, speaker.pauses)
	speaker.mu.Unlock()

	l.Resume()
	assert.True(t, l.IsSpeaking())

	l.Stop()
	l.Resume()
	assert.Equal(t, StateIdle, l.State())
}

func TestLocal_SetRateAndVoice(t *testing.T) {
	l, _, settings := newLocalFixture(t, 0)

	require.NoError(t, l.SetRate(100))
	assert.Equal(t, LocalMinRate, l.Rate())
	assert.Equal(t, LocalMinRate, settings.get("rate"))

	require.NoError(t, l.SetRate(1200))
	assert.Equal(t, 1200, l.Rate())

	require.NoError(t, l.SetVoice("david"))
	assert.Equal(t, "david", l.Voice())
	assert.Equal(t, "david", settings.get("voice"))

	require.NoError(t, l.SetVoice("nobody"))
	assert.Equal(t, DefaultLocalVoice, l.Voice())
	assert.Equal(t, DefaultLocalVoice, settings.get("voice"))
}

func TestLocal_SettingsFailure(t *testing.T) {
	l, _, settings := newLocalFixture(t, 0)
	settings.err = errors.New("disk full")

	err := l.SetRate(400)
	var serr *SpeechError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrorCodeSettings, serr.Code)
	assert.Equal(t, 400, l.Rate(), "in-memory rate still changes")
}

func TestLocal_AnnounceLeavesStateAlone(t *testing.T) {
	l, speaker, _ := newLocalFixture(t, 0)

	require.NoError(t, l.Announce(context.Background(), "Faster"))
	assert.Equal(t, StateIdle, l.State())
	assert.Equal(t, []string{"Faster"}, speaker.spoken())
}
