package render

import (
	"strings"
	"testing"

	"github.com/onnwee/prodscout/pipeline"
)

func TestTableHeadersAndAlignment(t *testing.T) {
	rows := []pipeline.Row{
		{Song: "Accordion", Producer: "Madlib", Link: "https://genius.test/madlib"},
		{Song: "Meat Grinder", Producer: "Unknown", Link: "-"},
	}
	out := Table(rows)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want header + underline + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Song") || !strings.Contains(lines[0], "Producer") || !strings.Contains(lines[0], "Link") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Trim(strings.ReplaceAll(lines[1], " ", ""), "-") != "" {
		t.Errorf("underline = %q", lines[1])
	}
	// Producer column starts at the same offset in every row.
	off := strings.Index(lines[0], "Producer")
	if strings.Index(lines[2], "Madlib") != off {
		t.Errorf("misaligned producer column:\n%s", out)
	}
}

func TestTableTruncation(t *testing.T) {
	longTitle := strings.Repeat("a", 40)
	longProducer := strings.Repeat("b", 40)
	link := "https://genius.test/" + strings.Repeat("c", 60)
	out := Table([]pipeline.Row{{Song: longTitle, Producer: longProducer, Link: link}})

	if strings.Contains(out, longTitle) {
		t.Error("song title not truncated")
	}
	if !strings.Contains(out, strings.Repeat("a", 25)) {
		t.Error("song title truncated below 25 chars")
	}
	if strings.Contains(out, strings.Repeat("b", 21)) {
		t.Error("producer name not truncated to 20 chars")
	}
	// The link column is never trimmed, a cut link is useless.
	if !strings.Contains(out, link) {
		t.Error("link was truncated")
	}
}

func TestTableEmpty(t *testing.T) {
	out := Table(nil)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Errorf("empty table lines = %d, want header + underline", len(lines))
	}
}
