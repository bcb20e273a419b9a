package textfilter

import (
	"reflect"
	"testing"
)

func TestMarkdownLines(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     []string
	}{
		{
			name:     "headings and paragraphs",
			markdown: "# Title\n\nThis is a paragraph.\nIt wraps.",
			want:     []string{"Title", "This is a paragraph. It wraps."},
		},
		{
			name:     "lists",
			markdown: "Items:\n\n- First item\n- Second item",
			want:     []string{"Items:", "First item", "Second item"},
		},
		{
			name:     "code blocks dropped",
			markdown: "Before.\n\n```go\nfunc main() {}\n```\n\nAfter.",
			want:     []string{"Before.", "After."},
		},
		{
			name:     "inline code kept",
			markdown: "Run `make test` first.",
			want:     []string{"Run make test first."},
		},
		{
			name:     "links and images",
			markdown: "Visit [the docs](https://example.com). ![a chart](c.png)",
			want:     []string{"Visit the docs. a chart"},
		},
		{
			name:     "emphasis",
			markdown: "This is **bold** and *italic*.",
			want:     []string{"This is bold and italic."},
		},
		{
			name:     "blockquote",
			markdown: "> Quoted text.",
			want:     []string{"Quoted text."},
		},
		{
			name:     "empty",
			markdown: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownLines(tt.markdown)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MarkdownLines() = %q, want %q", got, tt.want)
			}
		})
	}
}
