package textfilter

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLines extracts the speakable text of a markdown document, one
// line per block: headings, paragraphs, list items and quotes. Code blocks
// and raw HTML are dropped; links keep their text, images their alt text.
func MarkdownLines(markdown string) []string {
	reader := text.NewReader([]byte(markdown))
	doc := goldmark.New().Parser().Parse(reader)

	w := &blockWriter{source: reader.Source()}
	w.walk(doc)
	w.flush()
	return w.lines
}

type blockWriter struct {
	source []byte
	buf    strings.Builder
	lines  []string
}

// flush ends the current block.
func (w *blockWriter) flush() {
	line := strings.Join(strings.Fields(w.buf.String()), " ")
	if line != "" {
		w.lines = append(w.lines, line)
	}
	w.buf.Reset()
}

func (w *blockWriter) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.walk(c)
	}
}

func (w *blockWriter) walk(node ast.Node) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		w.buf.Write(n.Segment.Value(w.source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			w.buf.WriteByte(' ')
		}
		return

	case *ast.String:
		w.buf.Write(n.Value)
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				w.buf.Write(t.Segment.Value(w.source))
			}
		}
		return

	case *ast.AutoLink:
		w.buf.Write(n.Label(w.source))
		return

	case *ast.Image:
		// Alt text only; the URL is noise when read aloud.
		w.children(n)
		return

	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		w.flush()
		w.children(n)
		w.flush()
		return

	case *ast.ThematicBreak:
		w.flush()
		return
	}

	w.children(node)
}
