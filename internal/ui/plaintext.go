package ui

import (
	"strings"

	"golang.org/x/net/html"
)

// markupTags are the tags removed from answers; anything else that looks
// like a tag ("a<b", "<config>") is prose and is kept.
var markupTags = map[string]bool{
	"br": true, "p": true, "div": true, "span": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
	"b": true, "strong": true, "i": true, "em": true,
	"script": true, "style": true,
}

// StripHTML removes HTML markup that models sometimes mix into markdown
// answers. Line breaks and paragraphs become newlines; markdown and code
// spans are kept as written.
func StripHTML(answer string) string {
	if !strings.Contains(answer, "<") {
		return answer
	}

	var sb strings.Builder
	blocks := strings.Split(answer, "```")
	for i, block := range blocks {
		if i%2 == 1 {
			writeCode(&sb, "```", block, i == len(blocks)-1)
			continue
		}
		spans := strings.Split(block, "`")
		for j, span := range spans {
			if j%2 == 1 {
				writeCode(&sb, "`", span, j == len(spans)-1)
				continue
			}
			stripTags(&sb, span)
		}
	}
	return strings.TrimSpace(sb.String())
}

// writeCode writes a code span back verbatim; an unclosed span stays unclosed
func writeCode(sb *strings.Builder, fence, code string, last bool) {
	sb.WriteString(fence)
	sb.WriteString(code)
	if !last {
		sb.WriteString(fence)
	}
}

// stripTags copies s to sb, dropping the known tags and the content of
// script and style elements
func stripTags(sb *strings.Builder, s string) {
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			sb.WriteString(html.UnescapeString(s))
			return
		}
		sb.WriteString(html.UnescapeString(s[:lt]))
		s = s[lt:]

		gt := strings.IndexByte(s, '>')
		if gt < 0 {
			sb.WriteString(s)
			return
		}
		name, end, ok := parseTag(s[:gt+1])
		if !ok {
			sb.WriteByte('<')
			s = s[1:]
			continue
		}
		s = s[gt+1:]

		if (name == "script" || name == "style") && !end {
			if k := indexFold(s, "</"+name); k >= 0 {
				s = s[k:]
			} else {
				s = ""
			}
			continue
		}
		writeBreak(sb, name, end)
	}
}

// parseTag reports whether tag is exactly one known start, end or
// self-closing tag whose attributes all carry values
func parseTag(tag string) (name string, end bool, ok bool) {
	z := html.NewTokenizer(strings.NewReader(tag))
	tt := z.Next()
	if tt != html.StartTagToken && tt != html.EndTagToken && tt != html.SelfClosingTagToken {
		return "", false, false
	}
	if len(z.Raw()) != len(tag) {
		return "", false, false
	}

	tok := z.Token()
	if !markupTags[tok.Data] {
		return "", false, false
	}
	for _, a := range tok.Attr {
		if a.Val == "" {
			return "", false, false
		}
	}
	return tok.Data, tt == html.EndTagToken, true
}

func writeBreak(sb *strings.Builder, name string, end bool) {
	switch name {
	case "br":
		sb.WriteString("\n")
	case "li":
		if end {
			sb.WriteString("\n")
		} else {
			sb.WriteString("- ")
		}
	case "p", "div", "ul", "ol", "table":
		if end {
			sb.WriteString("\n\n")
		}
	case "tr", "h1", "h2", "h3", "h4":
		if end {
			sb.WriteString("\n")
		}
	case "td", "th":
		if end {
			sb.WriteString(" ")
		}
	}
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
