package adapter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var polishFold = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

// toASCII folds Polish diacritics to their ASCII base letters.
func toASCII(s string) string {
	return polishFold.Replace(s)
}

// text returns the selection's text with whitespace collapsed.
func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// absolutize resolves href against origin. Absolute links are returned as is.
func absolutize(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// joinEscaped path-escapes each word and joins them with sep, so characters
// like '#', '/' and '?' stay inside the keyword segment.
func joinEscaped(words []string, sep string) string {
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = url.PathEscape(w)
	}
	return strings.Join(escaped, sep)
}
