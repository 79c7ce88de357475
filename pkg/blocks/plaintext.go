package blocks

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dividerLine stands in for <hr> in the plain-text alternative.
const dividerLine = "----------"

// PlainText derives the text/plain alternative of rendered email HTML.
// Every leaf table cell becomes one line: links as "label (href)", images
// as "[alt]", rules as a dashed line. Empty cells are skipped.
func PlainText(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lines []string
	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if cell.Find("td").Length() > 0 {
			return
		}
		if cell.Find("hr").Length() > 0 {
			lines = append(lines, dividerLine)
			return
		}
		if a := cell.Find("a").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			lines = append(lines, fmt.Sprintf("%s (%s)", strings.TrimSpace(a.Text()), href))
			return
		}
		if img := cell.Find("img").First(); img.Length() > 0 {
			if alt, _ := img.Attr("alt"); alt != "" {
				lines = append(lines, "["+alt+"]")
			}
			return
		}
		if text := strings.TrimSpace(cell.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	return strings.Join(lines, "\n"), nil
}

// Stats counts the notable elements of rendered HTML.
type Stats struct {
	Rows    int `json:"rows"`
	Tables  int `json:"tables"`
	Images  int `json:"images"`
	Links   int `json:"links"`
	Rules   int `json:"rules"`
	Spacers int `json:"spacers"`
}

// Inspect parses rendered HTML and counts its elements.
func Inspect(html string) (Stats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Stats{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	stats := Stats{
		Rows:   doc.Find("tr").Length(),
		Tables: doc.Find("table").Length(),
		Images: doc.Find("img").Length(),
		Links:  doc.Find("a[href]").Length(),
		Rules:  doc.Find("hr").Length(),
	}
	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		style, _ := cell.Attr("style")
		if strings.Contains(style, "font-size:1px") {
			stats.Spacers++
		}
	})
	return stats, nil
}
