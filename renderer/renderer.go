// Package renderer turns analytics results into markdown reports for the
// terminal.
package renderer

import (
	"fmt"
	"strings"
)

// table writes a markdown table with the given header and rows.
func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

func h1(b *strings.Builder, format string, args ...any) {
	fmt.Fprintf(b, "# "+format+"\n\n", args...)
}

func h2(b *strings.Builder, format string, args ...any) {
	fmt.Fprintf(b, "\n## "+format+"\n\n", args...)
}

func line(b *strings.Builder, format string, args ...any) {
	fmt.Fprintf(b, format+"\n", args...)
}

func bullets(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
