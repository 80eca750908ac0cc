// Package markdown converts markdown sources to plain text for ingestion.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

func newParser() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// ToPlainText renders markdown as plain text: heading markers, emphasis, and
// link syntax are stripped while heading text, paragraphs, list items, and
// code block contents survive. Block structure is kept as blank lines so the
// downstream splitter can still prefer paragraph boundaries.
func ToPlainText(source []byte) (string, error) {
	doc := newParser().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindHeading, ast.KindParagraph, ast.KindListItem,
				ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindBlockquote:
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.CodeBlock:
			writeLines(&b, v, source)
		case *ast.FencedCodeBlock:
			writeLines(&b, v, source)
		case *ast.CodeSpan:
			// Children are Text nodes; nothing extra to emit.
		case *ast.AutoLink:
			b.Write(v.URL(source))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown: %w", err)
	}

	out := blankRuns.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out), nil
}

func writeLines(b *strings.Builder, n ast.Node, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		// At returns a value and Segment.Value has a pointer receiver.
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
}

// Title returns the first top-level heading of the document, or "" when the
// document has none.
func Title(source []byte) string {
	doc := newParser().Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}
