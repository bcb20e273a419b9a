//go:build windows

package engines

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/ityeti/herald/internal/tts"
)

// SAPI SpeakFlags.
const (
	svsfAsync            = 1
	svsfPurgeBeforeSpeak = 2
)

// SAPI rates run from -10 to 10 on a logarithmic scale. These anchor that
// scale to words per minute for the stock desktop voices.
const (
	sapiBaseWPM = 156.63
	sapiFactor  = 1.11
)

// SystemSpeaker drives the SAPI SpVoice automation object.
type SystemSpeaker struct {
	mu    sync.Mutex
	voice *ole.IDispatch
}

// NewSystemSpeaker creates the SAPI speaker. The binary setting is ignored.
func NewSystemSpeaker(SystemConfig) (*SystemSpeaker, error) {
	return &SystemSpeaker{}, nil
}

// Say implements tts.Speaker. COM objects stay on the goroutine's locked OS
// thread for the whole utterance.
func (s *SystemSpeaker) Say(ctx context.Context, text string, voice tts.Voice, wpm int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE means COM was already initialized on this thread.
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return fmt.Errorf("unable to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return fmt.Errorf("unable to create SAPI voice: %w", err)
	}
	defer unknown.Release()

	sp, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("unable to query SAPI voice: %w", err)
	}
	defer sp.Release()

	if err := selectVoice(sp, voice.ID); err != nil {
		log.Debug("Using default SAPI voice", "voice", voice.ID, "err", err)
	}
	if _, err := oleutil.PutProperty(sp, "Rate", sapiRate(wpm)); err != nil {
		return fmt.Errorf("unable to set SAPI rate: %w", err)
	}

	s.mu.Lock()
	s.voice = sp
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.voice = nil
		s.mu.Unlock()
	}()

	if _, err := oleutil.CallMethod(sp, "Speak", text, svsfAsync); err != nil {
		return fmt.Errorf("SAPI speak failed: %w", err)
	}

	for {
		if ctx.Err() != nil {
			_, _ = oleutil.CallMethod(sp, "Speak", "", svsfPurgeBeforeSpeak)
			return ctx.Err()
		}
		res, err := oleutil.CallMethod(sp, "WaitUntilDone", 50)
		if err != nil {
			return fmt.Errorf("SAPI wait failed: %w", err)
		}
		if done, _ := res.Value().(bool); done {
			return nil
		}
	}
}

func selectVoice(sp *ole.IDispatch, id string) error {
	tokens, err := oleutil.CallMethod(sp, "GetVoices", "Name="+id)
	if err != nil {
		return err
	}
	list := tokens.ToIDispatch()
	defer list.Release()

	count, err := oleutil.GetProperty(list, "Count")
	if err != nil {
		return err
	}
	if count.Val == 0 {
		return fmt.Errorf("voice %q is not installed", id)
	}

	item, err := oleutil.CallMethod(list, "Item", 0)
	if err != nil {
		return err
	}
	token := item.ToIDispatch()
	defer token.Release()

	_, err = oleutil.PutPropertyRef(sp, "Voice", token)
	return err
}

// sapiRate converts wpm to the SAPI -10..10 scale.
func sapiRate(wpm int) int {
	r := int(math.Round(math.Log(float64(wpm)/sapiBaseWPM) / math.Log(sapiFactor)))
	return min(max(r, -10), 10)
}

// Pause implements tts.Pauser.
func (s *SystemSpeaker) Pause() error {
	return s.call("Pause")
}

// Resume implements tts.Pauser.
func (s *SystemSpeaker) Resume() error {
	return s.call("Resume")
}

func (s *SystemSpeaker) call(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice == nil {
		return nil
	}
	_, err := oleutil.CallMethod(s.voice, method)
	return err
}

var (
	_ tts.Speaker = (*SystemSpeaker)(nil)
	_ tts.Pauser  = (*SystemSpeaker)(nil)
)
