package collect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractBlocks pulls the rendered text of every receipt position on the
// page. Each div.chekPosition yields one block: its non-bold paragraphs
// followed by the price paragraphs of its NDS section, newline-joined.
// A nil result means the page holds no position container.
func ExtractBlocks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	positions := doc.Find("div.check div.chekPosition")
	if positions.Length() == 0 {
		positions = doc.Find("div.chekPosition")
	}

	var blocks []string
	positions.Each(func(_ int, position *goquery.Selection) {
		var lines []string

		position.Find("p").Each(func(_ int, p *goquery.Selection) {
			if p.HasClass("bold") {
				return
			}
			// NDS paragraphs are collected separately below to keep the
			// price breakdown at the end of the block.
			if p.Closest("div.NDS").Length() > 0 {
				return
			}
			if text := strings.TrimSpace(p.Text()); text != "" {
				lines = append(lines, text)
			}
		})

		position.Find("div.NDS p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				lines = append(lines, text)
			}
		})

		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	})

	return blocks, nil
}
