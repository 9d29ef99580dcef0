// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markup

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlTagPattern matches common HTML tags to detect if stored content is
// serialized markup rather than legacy plain text.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|s|a|ul|ol|li|h[1-6]|blockquote|pre|code)[\s>/]`)

// htmlSanitizer allows safe user-generated markup while stripping script,
// event handlers, and other dangerous constructs.
var htmlSanitizer = bluemonday.UGCPolicy()

// legacyRenderer converts older line-delimited plain-text content.
// Strikethrough is the one extension the editor's marks need beyond
// CommonMark.
var legacyRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough),
)

// ContainsHTML checks if a string appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// RenderForViewing converts stored post content into sanitized markup for
// the public read path. Serialized markup renders near-verbatim; legacy
// plain-text content goes through the lightweight structural translator,
// which leaves unrecognized syntax as literal text.
func RenderForViewing(content string) string {
	if content == "" {
		return ""
	}

	if ContainsHTML(content) {
		return htmlSanitizer.Sanitize(content)
	}

	var buf bytes.Buffer
	if err := legacyRenderer.Convert([]byte(content), &buf); err != nil {
		// Conversion failures degrade to escaped plain text, never to a
		// broken document.
		return htmlSanitizer.Sanitize("<p>" + content + "</p>")
	}
	return htmlSanitizer.Sanitize(buf.String())
}
