package camps

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanDescription reduces a scraped description to plain text. Aggregated
// listings frequently carry markup fragments and HTML entities from the
// source pages.
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
