package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText strips markup from catalog HTML fragments (WooCommerce
// descriptions) and collapses whitespace. Unparseable input is returned
// trimmed as-is.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
