// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse converts a markup string back into a document tree. It accepts
// anything Serialize produces and degrades gracefully on everything else:
// unknown tags are unwrapped, stray inline content is wrapped in paragraphs,
// and unparseable input falls back to a single plain-text paragraph.
// Parse never fails.
func Parse(s string) *Node {
	if s == "" {
		return NewRoot()
	}

	fragment, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		// The tokenizer recovers from almost anything, so this is rare;
		// keep the content rather than dropping it.
		return NewRoot(NewParagraph(NewText(s, 0)))
	}

	p := &blockParser{}
	for _, n := range fragment {
		p.consume(n)
	}
	return NewRoot(p.finish()...)
}

// blockParser accumulates top-level blocks, collecting loose inline content
// into an implicit paragraph until the next block boundary.
type blockParser struct {
	blocks  []*Node
	pending []*Node
}

func (p *blockParser) consume(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return
		}
		p.pending = append(p.pending, NewText(n.Data, 0))

	case html.ElementNode:
		switch n.DataAtom {
		case atom.P:
			p.flush()
			p.blocks = append(p.blocks, NewParagraph(parseInline(n, 0)...))
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			p.flush()
			p.blocks = append(p.blocks, NewHeading(headingLevel(n.DataAtom), parseInline(n, 0)...))
		case atom.Ul, atom.Ol:
			p.flush()
			p.blocks = append(p.blocks, parseList(n))
		case atom.Blockquote:
			p.flush()
			p.blocks = append(p.blocks, parseQuote(n))
		case atom.Pre:
			p.flush()
			p.blocks = append(p.blocks, &Node{Kind: KindCodeBlock, Text: textContent(n)})
		case atom.Div, atom.Section, atom.Article:
			// Container tags are transparent; their children parse in place.
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				p.consume(c)
			}
		case atom.Br:
			p.pending = append(p.pending, &Node{Kind: KindLineBreak})
		default:
			// Inline or unknown element at the top level joins the
			// implicit paragraph.
			p.pending = append(p.pending, parseInlineNode(n, 0)...)
		}
	}
}

// flush closes the implicit paragraph if any inline content is pending.
func (p *blockParser) flush() {
	if len(p.pending) == 0 {
		return
	}
	p.blocks = append(p.blocks, NewParagraph(mergeTextRuns(p.pending)...))
	p.pending = nil
}

func (p *blockParser) finish() []*Node {
	p.flush()
	return p.blocks
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	default:
		return 6
	}
}

// parseInline parses the children of a block element into inline nodes,
// merging adjacent text runs that carry identical marks.
func parseInline(n *html.Node, format Format) []*Node {
	var nodes []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, parseInlineNode(c, format)...)
	}
	return mergeTextRuns(nodes)
}

// parseInlineNode parses a single node in inline context. Marks accumulate
// through nesting, so <strong><em>x</em></strong> becomes one text run with
// both bits set.
func parseInlineNode(n *html.Node, format Format) []*Node {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return nil
		}
		return []*Node{NewText(n.Data, format)}

	case html.ElementNode:
		switch n.DataAtom {
		case atom.Strong, atom.B:
			return parseInline(n, format|FormatBold)
		case atom.Em, atom.I:
			return parseInline(n, format|FormatItalic)
		case atom.S, atom.Del, atom.Strike:
			return parseInline(n, format|FormatStrikethrough)
		case atom.Code:
			return parseInline(n, format|FormatCode)
		case atom.A:
			link := NewLink(attrValue(n, "href"), parseInline(n, format)...)
			return []*Node{link}
		case atom.Br:
			return []*Node{{Kind: KindLineBreak}}
		default:
			// Unknown tags are unwrapped: their children survive, the
			// tag itself is dropped.
			return parseInline(n, format)
		}
	}
	return nil
}

// parseList builds a single-level list: nested lists inside items are
// spliced into the parent rather than preserved as hierarchy.
func parseList(n *html.Node) *Node {
	list := &Node{Kind: KindList, Ordered: n.DataAtom == atom.Ol}
	appendListItems(list, n)
	return list
}

func appendListItems(list *Node, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Li:
			item := &Node{Kind: KindListItem}
			var nested []*html.Node
			var inline []*Node
			for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
				if gc.Type == html.ElementNode && (gc.DataAtom == atom.Ul || gc.DataAtom == atom.Ol) {
					nested = append(nested, gc)
					continue
				}
				inline = append(inline, parseInlineNode(gc, 0)...)
			}
			item.Children = mergeTextRuns(inline)
			list.Children = append(list.Children, item)
			for _, sub := range nested {
				appendListItems(list, sub)
			}
		case atom.Ul, atom.Ol:
			appendListItems(list, c)
		}
	}
}

// parseQuote parses a blockquote, wrapping loose inline content in paragraphs.
func parseQuote(n *html.Node) *Node {
	p := &blockParser{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.consume(c)
	}
	return &Node{Kind: KindQuote, Children: p.finish()}
}

// mergeTextRuns joins adjacent text nodes with identical marks so that
// parse output is canonical and re-serializes byte-identically.
func mergeTextRuns(nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	merged := nodes[:1]
	for _, n := range nodes[1:] {
		last := merged[len(merged)-1]
		if n.Kind == KindText && last.Kind == KindText && n.Format == last.Format {
			last.Text += n.Text
			continue
		}
		merged = append(merged, n)
	}
	return merged
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent returns the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
