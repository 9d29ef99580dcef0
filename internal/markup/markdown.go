// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markup

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// ToMarkdown converts stored markup into Markdown, used by the content
// export path. Legacy plain-text content is already Markdown-shaped and is
// returned unchanged.
func ToMarkdown(content string) string {
	if content == "" || !ContainsHTML(content) {
		return content
	}

	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		// If conversion fails, return the original string
		return content
	}

	return strings.TrimSpace(markdown)
}
