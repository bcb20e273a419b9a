package app

// Hotkey action names.
const (
	ActionSpeak      = "speak"
	ActionPause      = "pause/resume"
	ActionStop       = "stop"
	ActionSpeedUp    = "faster"
	ActionSpeedDown  = "slower"
	ActionNext       = "next line"
	ActionPrev       = "previous line"
	ActionRegion     = "toggle region"
	ActionAutoRead   = "toggle auto-read"
	ActionReadMode   = "cycle read mode"
	ActionFilterCode = "toggle code filter"
	ActionQuit       = "quit"
)

// fixedHotkeys are the bindings that cannot be changed in settings. Speak
// and pause come from settings.
var fixedHotkeys = []struct {
	spec   string
	action string
}{
	{"escape", ActionStop},
	{"alt+]", ActionSpeedUp},
	{"alt+[", ActionSpeedDown},
	{"alt+n", ActionNext},
	{"alt+b", ActionPrev},
	{"alt+m", ActionRegion},
	{"alt+r", ActionAutoRead},
	{"alt+l", ActionReadMode},
	{"alt+c", ActionFilterCode},
	{"alt+q", ActionQuit},
}

func (s *Session) handler(action string) func() {
	switch action {
	case ActionSpeak:
		return s.SpeakSelection
	case ActionPause:
		return s.PauseResume
	case ActionStop:
		return s.Stop
	case ActionSpeedUp:
		return s.SpeedUp
	case ActionSpeedDown:
		return s.SpeedDown
	case ActionNext:
		return s.NextLine
	case ActionPrev:
		return s.PrevLine
	case ActionRegion:
		return s.ToggleRegion
	case ActionAutoRead:
		return s.ToggleAutoRead
	case ActionReadMode:
		return s.CycleReadMode
	case ActionFilterCode:
		return s.ToggleFilterCode
	case ActionQuit:
		return s.Quit
	default:
		return nil
	}
}

func (s *Session) bindHotkeys(speak, pause string) error {
	if err := s.hotkeys.Bind(speak, ActionSpeak, s.handler(ActionSpeak)); err != nil {
		return err
	}
	if err := s.hotkeys.Bind(pause, ActionPause, s.handler(ActionPause)); err != nil {
		return err
	}
	for _, h := range fixedHotkeys {
		if err := s.hotkeys.Bind(h.spec, h.action, s.handler(h.action)); err != nil {
			return err
		}
	}
	return nil
}
