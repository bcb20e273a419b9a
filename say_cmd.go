package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/textfilter"
)

var (
	sayFile string

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text once and exit",
		Long: paragraph(fmt.Sprintf("\n%s text with the configured voice, line by line, and exit when done. "+
			"Markdown files are reduced to their readable text.", keyword("Speak"))),
		Example: paragraph("herald say \"Hello there\"\nherald say -f notes.md\necho hi | herald say -f -"),
		RunE:    runSay,
	}
)

func init() {
	sayCmd.Flags().StringVarP(&sayFile, "file", "f", "", "read text from a file, or - for stdin")
}

func readSayText(args []string) (string, error) {
	if sayFile == "" {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return "", errors.New("nothing to say: pass text or --file")
		}
		return text, nil
	}

	var b []byte
	var err error
	if sayFile == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(expandPath(sayFile))
	}
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", sayFile, err)
	}

	if isMarkdownFile(sayFile) {
		return strings.Join(textfilter.MarkdownLines(string(b)), "\n"), nil
	}
	return string(b), nil
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdown", ".mkdn", ".mkd", ".markdown":
		return true
	}
	return false
}

func runSay(cmd *cobra.Command, args []string) error {
	text, err := readSayText(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeEngines, err := newEngines()
	if err != nil {
		return err
	}
	defer closeEngines()

	session, err := newSession(cmd, eng, app.LogNotifier{}, false)
	if err != nil {
		return err
	}
	defer session.Close() //nolint:errcheck

	session.Speak(text)
	if !session.Queue().Active() {
		return errors.New("nothing speakable in the input")
	}

	ticker := time.NewTicker(app.DefaultTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted")
			return nil
		case now := <-ticker.C:
			session.Tick(now)
			if !session.Queue().Active() && !session.Backend().State().Active() {
				return nil
			}
		}
	}
}
