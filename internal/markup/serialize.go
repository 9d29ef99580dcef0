// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markup

import (
	"html"
	"strconv"
	"strings"
)

// markWrappers is the fixed nesting order for inline marks. Serializing the
// same format bits always produces the same tag nesting, which keeps
// Serialize deterministic regardless of how the marks were applied.
var markWrappers = []struct {
	format Format
	tag    string
}{
	{FormatBold, "strong"},
	{FormatItalic, "em"},
	{FormatStrikethrough, "s"},
	{FormatCode, "code"},
}

// Serialize walks the document tree and emits its canonical markup string.
// It is total: any tree state, however incomplete, produces some string,
// and serializing the same tree twice yields byte-identical output.
func Serialize(root *Node) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	serializeNode(&sb, root)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KindRoot:
		for _, c := range n.Children {
			serializeNode(sb, c)
		}

	case KindParagraph:
		sb.WriteString("<p>")
		serializeChildren(sb, n)
		sb.WriteString("</p>")

	case KindHeading:
		level := strconv.Itoa(clampHeadingLevel(n.Level))
		sb.WriteString("<h")
		sb.WriteString(level)
		sb.WriteString(">")
		serializeChildren(sb, n)
		sb.WriteString("</h")
		sb.WriteString(level)
		sb.WriteString(">")

	case KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		sb.WriteString("<")
		sb.WriteString(tag)
		sb.WriteString(">")
		for _, c := range n.Children {
			serializeNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(tag)
		sb.WriteString(">")

	case KindListItem:
		sb.WriteString("<li>")
		serializeChildren(sb, n)
		sb.WriteString("</li>")

	case KindQuote:
		sb.WriteString("<blockquote>")
		for _, c := range n.Children {
			serializeNode(sb, c)
		}
		sb.WriteString("</blockquote>")

	case KindCodeBlock:
		sb.WriteString("<pre><code>")
		sb.WriteString(html.EscapeString(n.Text))
		sb.WriteString("</code></pre>")

	case KindText:
		serializeText(sb, n)

	case KindLink:
		sb.WriteString(`<a href="`)
		sb.WriteString(html.EscapeString(n.Href))
		sb.WriteString(`">`)
		serializeChildren(sb, n)
		sb.WriteString("</a>")

	case KindLineBreak:
		sb.WriteString("<br>")

	default:
		// Unknown kinds degrade to their content rather than failing.
		if n.Text != "" {
			sb.WriteString(html.EscapeString(n.Text))
		}
		serializeChildren(sb, n)
	}
}

// serializeChildren emits inline children, coalescing adjacent text runs
// with identical marks so that equal trees serialize byte-identically no
// matter how the runs were split.
func serializeChildren(sb *strings.Builder, n *Node) {
	var run *Node
	flush := func() {
		if run != nil {
			serializeText(sb, run)
			run = nil
		}
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if c.Kind == KindText {
			if run != nil && run.Format == c.Format {
				run.Text += c.Text
				continue
			}
			flush()
			run = &Node{Kind: KindText, Format: c.Format, Text: c.Text}
			continue
		}
		flush()
		serializeNode(sb, c)
	}
	flush()
}

func serializeText(sb *strings.Builder, n *Node) {
	for _, mw := range markWrappers {
		if n.Format.Has(mw.format) {
			sb.WriteString("<")
			sb.WriteString(mw.tag)
			sb.WriteString(">")
		}
	}

	sb.WriteString(html.EscapeString(n.Text))

	for i := len(markWrappers) - 1; i >= 0; i-- {
		if n.Format.Has(markWrappers[i].format) {
			sb.WriteString("</")
			sb.WriteString(markWrappers[i].tag)
			sb.WriteString(">")
		}
	}
}
