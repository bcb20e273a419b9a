package textfilter

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Order matters: markup and sigils go before the case splitting, and
// space collapsing always runs last. Each rewrite is applied until it stops
// matching, so nested markup unwraps in a single pass.
var rewrites = []rewrite{
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "${1}"},
	{regexp.MustCompile(`__([^_]+)__`), "${1}"},
	{regexp.MustCompile("`([^`]+)`"), "${1}"},
	{regexp.MustCompile(`~~([^~]+)~~`), "${1}"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "${1}"},
	{regexp.MustCompile(`[#@]+(\w+)`), "${1}"},
}

var (
	snakeCase   = regexp.MustCompile(`(\w)_(\w)`)
	camelCase   = regexp.MustCompile(`([a-z])([A-Z])`)
	acronymCase = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)

	punctuation = []rewrite{
		{regexp.MustCompile(`\.{2,}`), "."},
		{regexp.MustCompile(`!{2,}`), "!"},
		{regexp.MustCompile(`\?{2,}`), "?"},
		{regexp.MustCompile(`…`), "."},
	}

	multipleSpaces = regexp.MustCompile(` {2,}`)
)

// Normalize rewrites text so it reads naturally: terminal escapes and
// markdown markup are removed, identifiers are split into words and
// repeated punctuation is collapsed. It never fails and is idempotent.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	// Every pass either shortens the text or only splits words, so this
	// reaches a fixed point.
	result := text
	for {
		next := normalizeOnce(result)
		if next == result {
			break
		}
		result = next
	}
	return result
}

func normalizeOnce(text string) string {
	result := ansi.Strip(text)

	for _, rw := range rewrites {
		for rw.re.MatchString(result) {
			result = rw.re.ReplaceAllString(result, rw.repl)
		}
	}

	// Chains like a_b_c overlap, so keep going until nothing matches.
	for strings.Contains(result, "_") && snakeCase.MatchString(result) {
		result = snakeCase.ReplaceAllString(result, "${1} ${2}")
	}

	result = camelCase.ReplaceAllString(result, "${1} ${2}")
	result = acronymCase.ReplaceAllString(result, "${1} ${2}")

	for _, rw := range punctuation {
		result = rw.re.ReplaceAllString(result, rw.repl)
	}

	return multipleSpaces.ReplaceAllString(result, " ")
}
