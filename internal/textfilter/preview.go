package textfilter

import (
	"strings"

	"github.com/muesli/reflow/truncate"
)

// PreviewWidth is the length of text previews written to the log.
const PreviewWidth = 50

// Preview flattens text onto one line and truncates it for logging.
func Preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	return truncate.StringWithTail(flat, PreviewWidth, "...")
}
