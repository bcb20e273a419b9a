package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/tts"
)

// runHeadless runs the session without a UI. Each line on stdin is a
// command; see handleCommand.
func runHeadless(ctx context.Context, session *app.Session) error {
	log.Info("Running without a terminal UI; type a hotkey such as alt+s, or help")
	go readCommands(ctx, os.Stdin, session)
	return session.Run(ctx) //nolint:wrapcheck
}

func readCommands(ctx context.Context, r io.Reader, session *app.Session) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		handleCommand(session, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Debug("Stopped reading commands", "err", err)
	}
}

// handleCommand runs one headless command. Hotkey specs dispatch their
// action; say, voice, engine and rate take an argument.
func handleCommand(session *app.Session, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "say":
		session.Speak(arg)
	case "voice":
		if err := session.SetVoice(arg); err != nil {
			log.Error("Unable to change voice", "err", err)
		}
	case "engine":
		kind, err := tts.ParseKind(arg)
		if err != nil {
			log.Error("Unable to change engine", "err", err)
			return
		}
		if err := session.SetEngine(kind); err != nil {
			log.Error("Unable to change engine", "err", err)
		}
	case "rate":
		wpm, err := strconv.Atoi(arg)
		if err != nil {
			log.Error("Rate must be a number", "rate", arg)
			return
		}
		if err := session.SetRate(wpm); err != nil {
			log.Error("Unable to save rate", "err", err)
		}
	case "help":
		for _, b := range session.Hotkeys().Bindings() {
			log.Info("Hotkey", "key", b.Spec, "action", b.Action)
		}
		log.Info("Commands", "list", "say TEXT, voice NAME, engine NAME, rate WPM")
	default:
		if !session.Hotkeys().Dispatch(line) {
			log.Warn("Unknown command", "command", line)
		}
	}
}
