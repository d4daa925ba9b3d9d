// Package textutil formats help text.
package textutil

import "strings"

// Wrap splits text into lines of at most width columns, breaking on whitespace. A word longer than
// width gets a line of its own.
func Wrap(text string, width int) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line.Len() == 0:
		case line.Len()+1+len(word) > width:
			lines = append(lines, line.String())
			line.Reset()
		default:
			line.WriteByte(' ')
		}
		if line.Len() == 0 && len(word) > width {
			lines = append(lines, word)
			continue
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
