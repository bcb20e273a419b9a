// Package ui provides the terminal status surface for herald.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/hotkey"
	"github.com/ityeti/herald/internal/tts"
)

const (
	statusMessageTimeout = time.Second * 2
	ellipsis             = "…"
)

// Session is the part of app.Session the UI drives.
type Session interface {
	Hotkeys() *hotkey.Registry
	Status() app.Status
	CurrentLine() string
	Quit()
	Done() <-chan struct{}
}

var _ Session = (*app.Session)(nil)

type (
	helpRenderedMsg         string
	dispatchedMsg           struct{}
	sessionDoneMsg          struct{}
	statusMessageTimeoutMsg int
	errMsg                  struct{ err error }
)

func (e errMsg) Error() string { return e.err.Error() }

var localKeys = []key.Binding{
	key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy line")),
	key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// keyMap adapts the hotkey registry to bubbles/help.
type keyMap struct {
	hotkeys []key.Binding
}

func newKeyMap(r *hotkey.Registry) keyMap {
	var km keyMap
	for _, b := range r.Bindings() {
		km.hotkeys = append(km.hotkeys, b.KeyBinding())
	}
	return km
}

func (k keyMap) ShortHelp() []key.Binding { return localKeys }

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.hotkeys, localKeys}
}

type model struct {
	cfg     Config
	session Session
	keys    keyMap

	width  int
	height int

	state  tts.State
	status app.Status
	line   string

	spinner  spinner.Model
	help     help.Model
	showHelp bool
	helpDoc  string

	statusMessage    string
	statusMessageSeq int
}

// NewProgram returns a new Tea program showing s.
func NewProgram(cfg Config, s Session) *tea.Program {
	log.Debug("Starting UI", "style", cfg.GlamourStyle, "alt_screen", !cfg.NoAltScreen)

	var opts []tea.ProgramOption
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, s), opts...)
}

func newModel(cfg Config, s Session) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if termenv.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(blue)

	return model{
		cfg:     cfg,
		session: s,
		keys:    newKeyMap(s.Hotkeys()),
		status:  s.Status(),
		spinner: sp,
		help:    help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForQuit(m.session), m.renderHelp())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, m.renderHelp()

	case stateMsg:
		prev := m.state
		m.state = tts.State(msg)
		m.line = m.session.CurrentLine()
		if m.state == tts.StateGenerating && prev != tts.StateGenerating {
			return m, m.spinner.Tick
		}

	case statusMsg:
		m.status = app.Status(msg)
		m.line = m.session.CurrentLine()
		m.keys = newKeyMap(m.session.Hotkeys())

	case dispatchedMsg:
		m.status = m.session.Status()
		m.line = m.session.CurrentLine()

	case spinner.TickMsg:
		if m.state != tts.StateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case helpRenderedMsg:
		m.helpDoc = string(msg)

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusMessageSeq {
			m.statusMessage = ""
		}

	case sessionDoneMsg:
		return m, tea.Quit

	case errMsg:
		log.Error("UI error", "err", msg.err)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.session.Quit()
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "y":
		if m.line == "" {
			return m, nil
		}
		termenv.Copy(m.line)
		return m, m.showStatusMessage("Copied line")
	case "ctrl+z":
		return m, tea.Suspend
	}

	spec := msg.String()
	if msg.Type == tea.KeySpace {
		spec = "space"
	}
	reg := m.session.Hotkeys()
	b, ok := reg.Lookup(spec)
	if !ok {
		return m, nil
	}
	return m, tea.Batch(dispatch(reg, b.Spec), m.showStatusMessage(b.Action))
}

func (m *model) showStatusMessage(text string) tea.Cmd {
	m.statusMessage = text
	m.statusMessageSeq++
	seq := m.statusMessageSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.statusBarView())
	b.WriteString("\n")

	switch {
	case m.showHelp && m.helpDoc != "":
		b.WriteString(m.helpDoc)
	case m.line != "":
		b.WriteString(lineStyle.Render(m.lineView()))
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	default:
		b.WriteString(lineStyle.Render(dimStyle("Select text and press " + m.speakKey() + " to hear it.")))
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m model) speakKey() string {
	if spec, ok := m.session.Hotkeys().SpecFor(app.ActionSpeak); ok {
		return spec
	}
	return "the speak hotkey"
}

func (m model) lineView() string {
	width := max(m.width-4, 20)
	text := wordwrap.String(m.line, width)

	// Long lines are cut to the lines that fit above the footer.
	if m.height > 0 {
		lines := strings.Split(text, "\n")
		if limit := max(m.height-6, 1); len(lines) > limit {
			lines = lines[:limit]
			last := lines[limit-1]
			lines[limit-1] = runewidth.Truncate(last, width-1, "") + ellipsis
		}
		text = strings.Join(lines, "\n")
	}
	return text
}

func (m model) statusBarView() string {
	logo := herald()

	icon, color := stateBadge(m.state)
	if m.state == tts.StateGenerating {
		icon = m.spinner.View()
	}
	badge := statusBarNoteStyle(" ") + badgeStyle(color).Render(icon+" "+m.state.String())

	helpNote := statusBarHelpStyle(" ? Help ")

	var note string
	if m.statusMessage != "" {
		note = m.statusMessage
	} else {
		note = statusNote(m.status)
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(badge)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	styled := statusBarNoteStyle
	if m.statusMessage != "" {
		styled = statusBarMessageStyle
	}
	note = styled(note)

	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(badge)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := styled(strings.Repeat(" ", padding))

	return logo + badge + note + emptySpace + helpNote
}

// statusNote summarizes the session configuration.
func statusNote(s app.Status) string {
	parts := []string{
		fmt.Sprintf("%s/%s", s.Engine, s.Voice),
		fmt.Sprintf("%d wpm", s.Rate),
		s.ReadMode.String(),
	}
	if !s.FilterCode {
		parts = append(parts, "code on")
	}
	if s.RegionActive {
		region := "region"
		if s.AutoRead {
			region += " (auto)"
		}
		parts = append(parts, region)
	}
	if s.Lines > 0 {
		parts = append(parts, fmt.Sprintf("line %d/%d", s.Line, s.Lines))
	}
	return strings.Join(parts, " · ")
}

// COMMANDS

func dispatch(r *hotkey.Registry, spec string) tea.Cmd {
	return func() tea.Msg {
		r.Dispatch(spec)
		return dispatchedMsg{}
	}
}

func waitForQuit(s Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Done()
		return sessionDoneMsg{}
	}
}

func (m model) renderHelp() tea.Cmd {
	style := m.cfg.GlamourStyle
	width := m.width
	if m.cfg.GlamourMaxWidth > 0 {
		width = min(width, int(m.cfg.GlamourMaxWidth)) //nolint:gosec
	}
	doc := helpMarkdown(m.session.Hotkeys().Bindings())
	return func() tea.Msg {
		out, err := glamourRender(style, width, doc)
		if err != nil {
			return errMsg{err}
		}
		return helpRenderedMsg(out)
	}
}

func glamourRender(style string, width int, markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(width, 0)),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}

// helpMarkdown lists every binding as a markdown table.
func helpMarkdown(bindings []hotkey.Binding) string {
	var b strings.Builder
	b.WriteString("# Hotkeys\n\n| Key | Action |\n| --- | --- |\n")
	for _, k := range bindings {
		fmt.Fprintf(&b, "| `%s` | %s |\n", k.Spec, k.Action)
	}
	b.WriteString("\nIn this window `y` copies the current line and `q` quits.\n")
	return b.String()
}
