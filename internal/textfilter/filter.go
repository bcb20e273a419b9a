// Package textfilter decides which lines of copied text are worth reading
// aloud and rewrites the survivors so speech engines pronounce them well.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
)

// Class is the result of classifying a single line.
type Class int

const (
	// Speakable lines are handed to the speech engine.
	Speakable Class = iota
	// Unspeakable lines are always dropped.
	Unspeakable
	// CodeLike lines are dropped only when code filtering is enabled.
	CodeLike
)

func (c Class) String() string {
	switch c {
	case Speakable:
		return "speakable"
	case Unspeakable:
		return "unspeakable"
	case CodeLike:
		return "code"
	default:
		return "unknown"
	}
}

// boxDrawing holds decorative glyphs that make a line unreadable.
const boxDrawing = "─│┌┐└┘├┤┬┴┼═║╔╗╚╝╠╣╦╩╬━┃┏┓┗┛┣┫┳┻╋▀▄█▌▐░▒▓■□▪▫●○◆◇★☆"

var (
	urlPattern      = regexp.MustCompile(`(?i)^\s*(https?://|ftp://|www\.)\S+\s*$`)
	filePathPattern = regexp.MustCompile(`(?i)^\s*([A-Za-z]:\\\S*|/[a-zA-Z]\S*|\.[/\\]\S*|\.\.[/\\]\S*)\s*$`)
	shellPrompt     = regexp.MustCompile(`^\s*([$>]\s+|>>\s+|PS\S*>|\[[^\]]+\][$#]\s)`)

	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(import|from)\s+\w+`),
		regexp.MustCompile(`(?i)^\s*def\s+\w+\s*\(`),
		regexp.MustCompile(`(?i)^\s*class\s+\w+`),
		regexp.MustCompile(`(?i)^\s*@\w+`),
		regexp.MustCompile(`(?i)^\s*(const|let|var)\s+\w+\s*=`),
		regexp.MustCompile(`(?i)^\s*function\s+\w+\s*\(`),
		regexp.MustCompile(`(?i)^\s*export\s+(default\s+)?(class|function|const)`),
		regexp.MustCompile(`^\s*[{}\[\]]+\s*$`),
		regexp.MustCompile(`^\s*[=\-]{3,}\s*$`),
		regexp.MustCompile(`^\s*//|^\s*#|^\s*/\*|^\s*\*`),
		regexp.MustCompile(`->\s*\w+`),
		regexp.MustCompile(`=>\s*[{(]`),
		regexp.MustCompile(`::\w+`),
	}

	gitHash      = regexp.MustCompile(`(?i)^[a-f0-9]{40}$`)
	shortHash    = regexp.MustCompile(`(?i)^[a-f0-9]{7,8}$`)
	uuidPattern  = regexp.MustCompile(`(?i)^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	hexDump      = regexp.MustCompile(`(?i)(0x[a-f0-9]+\s*){3,}`)
	logTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}`)
	emailPattern = regexp.MustCompile(`(?i)^\s*[\w.-]+@[\w.-]+\.\w+\s*$`)
)

var powershellCmdlets = []string{
	"Get-", "Set-", "New-", "Remove-", "Add-", "Clear-", "Copy-", "Move-",
	"Rename-", "Out-", "Write-", "Read-", "Start-", "Stop-", "Test-",
	"Invoke-", "Select-", "Where-", "ForEach-", "Format-", "Export-",
	"Import-", "ConvertTo-", "ConvertFrom-",
}

var cliCommands = []string{
	"pip ", "pip3 ", "npm ", "npx ", "yarn ", "pnpm ", "git ", "docker ",
	"kubectl ", "terraform ", "curl ", "wget ", "ssh ", "scp ", "rsync ",
	"cd ", "ls ", "dir ", "mkdir ", "rm ", "cp ", "mv ", "python ",
	"python3 ", "node ", "ruby ", "go ", "cargo ", "rustc ", "javac ",
	"gcc ", "g++ ", "apt ", "apt-get ", "brew ", "choco ", "winget ",
}

// Classify reports how a line should be treated. CodeLike is only returned
// when filterCode is set; otherwise code-looking lines count as Speakable.
func Classify(line string, filterCode bool) Class {
	if IsUnspeakable(line) {
		return Unspeakable
	}
	if filterCode && IsCodeLike(line) {
		return CodeLike
	}
	return Speakable
}

// IsUnspeakable reports whether a line is blank, mostly box-drawing glyphs,
// or has no letters at all.
func IsUnspeakable(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}

	var total, box int
	hasLetter := false
	for _, r := range trimmed {
		total++
		if strings.ContainsRune(boxDrawing, r) {
			box++
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if box > 0 && 2*box >= total {
		return true
	}
	return !hasLetter
}

// IsCodeLike reports whether a line looks like a URL, a path, a shell
// command, source code or another technical artifact.
func IsCodeLike(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if urlPattern.MatchString(trimmed) {
		return true
	}

	// A path inside a sentence is prose, so only short lines count.
	if filePathPattern.MatchString(trimmed) && len(strings.Fields(trimmed)) <= 2 {
		return true
	}

	if shellPrompt.MatchString(trimmed) {
		return true
	}

	for _, cmdlet := range powershellCmdlets {
		if strings.Contains(trimmed, cmdlet) {
			return true
		}
	}

	lower := strings.ToLower(trimmed)
	for _, cmd := range cliCommands {
		if strings.HasPrefix(lower, cmd) {
			return true
		}
	}

	for _, re := range codePatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}

	switch {
	case gitHash.MatchString(trimmed), shortHash.MatchString(trimmed):
		return true
	case uuidPattern.MatchString(trimmed):
		return true
	case hexDump.MatchString(trimmed):
		return true
	case logTimestamp.MatchString(trimmed):
		return true
	}

	return emailPattern.MatchString(trimmed)
}

// FilterLines drops unspeakable lines, and code-like lines when filterCode
// is set. The input order is preserved.
func FilterLines(lines []string, filterCode bool) []string {
	if len(lines) == 0 {
		return nil
	}

	result := make([]string, 0, len(lines))
	var unspeakable, code int
	for _, line := range lines {
		switch Classify(line, filterCode) {
		case Unspeakable:
			unspeakable++
		case CodeLike:
			code++
		default:
			result = append(result, line)
		}
	}

	if skipped := unspeakable + code; skipped > 0 {
		log.Debug("Filtered lines", "skipped", skipped, "unspeakable", unspeakable, "code", code)
	}
	return result
}
