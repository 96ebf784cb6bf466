package text

import "strings"

// SplitWords splits text into words at runs of spaces, tabs and newlines.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// CollapseSpace replaces every run of whitespace with a single space,
// keeping one leading and one trailing space if the text had them.
func CollapseSpace(text string) string {
	var b strings.Builder
	space := false
	for _, ch := range text {
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(ch)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

// Lines splits preformatted text at newlines, dropping a trailing
// carriage return from each line.
func Lines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
