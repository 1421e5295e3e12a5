// Package render turns producer-credit rows into a fixed-width text table.
package render

import (
	"strings"

	"github.com/onnwee/prodscout/pipeline"
)

// Display-width caps. Song and producer names are trimmed for column alignment;
// links are never trimmed, a cut link is worthless.
const (
	maxSongWidth     = 25
	maxProducerWidth = 20
)

var headers = [3]string{"Song", "Producer", "Link"}

// Table renders rows as a plain fixed-width table with a dash underline, the
// shape chat code blocks and text attachments both present well.
func Table(rows []pipeline.Row) string {
	cells := make([][3]string, 0, len(rows))
	widths := [3]int{len(headers[0]), len(headers[1]), len(headers[2])}
	for _, r := range rows {
		c := [3]string{truncate(r.Song, maxSongWidth), truncate(r.Producer, maxProducerWidth), r.Link}
		for i, v := range c {
			if n := len([]rune(v)); n > widths[i] {
				widths[i] = n
			}
		}
		cells = append(cells, c)
	}

	var b strings.Builder
	writeRow(&b, headers, widths)
	for i, w := range widths {
		b.WriteString(strings.Repeat("-", w))
		if i < len(widths)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')
	for _, c := range cells {
		writeRow(&b, c, widths)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, cells [3]string, widths [3]int) {
	for i, v := range cells {
		b.WriteString(v)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(v))))
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
