// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup implements the article body conversion pipeline: an
// editable document tree, its serialized HTML form stored in Post.content,
// and the sanitized view rendered to visitors.
package markup

// Kind identifies the variant of a document tree node.
type Kind int

const (
	KindRoot Kind = iota
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindQuote
	KindCodeBlock
	KindText
	KindLink
	KindLineBreak
)

// String returns a short name for the node kind, used in logs and tests.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindList:
		return "list"
	case KindListItem:
		return "list_item"
	case KindQuote:
		return "quote"
	case KindCodeBlock:
		return "code_block"
	case KindText:
		return "text"
	case KindLink:
		return "link"
	case KindLineBreak:
		return "line_break"
	default:
		return "unknown"
	}
}

// Format is a bitmask of inline marks on a text node. Marks compose freely;
// bold+italic on the same run is a single node with both bits set.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatCode
)

// Has reports whether all marks in f2 are set on f.
func (f Format) Has(f2 Format) bool {
	return f&f2 == f2
}

// Heading levels supported structurally. Deeper levels degrade to MaxHeadingLevel.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 3
)

// Node is one tagged variant of the document tree. Which fields are
// meaningful depends on Kind: Level for headings, Ordered for lists,
// Format and Text for text runs, Href for links.
type Node struct {
	Kind     Kind
	Level    int
	Ordered  bool
	Format   Format
	Href     string
	Text     string
	Children []*Node
}

// NewRoot returns an empty document tree.
func NewRoot(children ...*Node) *Node {
	return &Node{Kind: KindRoot, Children: children}
}

// NewParagraph returns a paragraph block containing the given inline nodes.
func NewParagraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

// NewHeading returns a heading block. Levels outside the supported range are
// clamped at serialization time, not here, so the tree reflects the input.
func NewHeading(level int, children ...*Node) *Node {
	return &Node{Kind: KindHeading, Level: level, Children: children}
}

// NewText returns an inline text run with the given marks.
func NewText(text string, format Format) *Node {
	return &Node{Kind: KindText, Text: text, Format: format}
}

// NewLink returns an inline link wrapping the given children.
func NewLink(href string, children ...*Node) *Node {
	return &Node{Kind: KindLink, Href: href, Children: children}
}

// clampHeadingLevel bounds a heading level to the supported range.
func clampHeadingLevel(level int) int {
	if level < MinHeadingLevel {
		return MinHeadingLevel
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}
