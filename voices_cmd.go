package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ityeti/herald/internal/settings"
	"github.com/ityeti/herald/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [FILTER]",
	Short:   "List the available voices",
	Long:    paragraph(fmt.Sprintf("\n%s the voices herald can speak with. An optional filter is matched fuzzily against names and descriptions.", keyword("List"))),
	Example: paragraph("herald voices\nherald voices guy\nherald voices offline"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voices := tts.AllVoices()
		if len(args) == 1 {
			voices = filterVoices(voices, args[0])
			if len(voices) == 0 {
				return fmt.Errorf("no voice matches %q", args[0])
			}
		}

		current := ""
		if path, err := settings.DefaultPath(); err == nil {
			if store, err := settings.Open(path); err == nil {
				current = store.String(settings.KeyVoice)
			}
		}

		_, err := fmt.Fprint(cmd.OutOrStdout(), voiceTable(voices, current))
		return err //nolint:wrapcheck
	},
}

// voiceSource lets fuzzy search names and labels together.
type voiceSource []tts.Voice

func (v voiceSource) String(i int) string {
	return v[i].Name + " " + v[i].Label + " " + v[i].Kind.String()
}

func (v voiceSource) Len() int { return len(v) }

// filterVoices returns the voices matching pattern, best match first.
func filterVoices(voices []tts.Voice, pattern string) []tts.Voice {
	matches := fuzzy.FindFrom(pattern, voiceSource(voices))
	out := make([]tts.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func voiceTable(voices []tts.Voice, current string) string {
	title := cases.Title(language.English)
	width := 0
	for _, v := range voices {
		width = max(width, len(v.Name))
	}

	var b strings.Builder
	for _, v := range voices {
		marker := "  "
		name := fmt.Sprintf("%-*s", width, title.String(v.Name))
		if v.Name == current {
			marker = "* "
			name = keyword(name)
		}
		fmt.Fprintf(&b, "%s%s  %-5s  %s %s\n", marker, name, v.Kind, v.Label, dim("("+v.ID+")"))
	}
	return b.String()
}
