package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractReadable distills document HTML into the text block attached to the
// first outgoing request: the title, the meta description when present, and
// the main readable content. Script, style and navigation chrome are
// excluded; this is a signal-extraction heuristic, not DOM fidelity.
func ExtractReadable(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()
	body := doc.Find("body").Text()

	return fmt.Sprintf("Title: %s\nDescription: %s\n\nContent:\n%s",
		title, desc, collapseWhitespace(body)), nil
}

// collapseWhitespace trims each line and squeezes runs of blank lines, since
// stripped markup leaves large gaps behind.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
