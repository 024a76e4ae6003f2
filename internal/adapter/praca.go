package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobfeed/internal/model"
)

const pracaBaseURL = "https://www.praca.pl"

// PracaAdapter scrapes the last-day listings of praca.pl.
type PracaAdapter struct {
	baseURL string
	city    string
	client  *http.Client
}

func NewPracaAdapter(baseURL, city string, client *http.Client) *PracaAdapter {
	if baseURL == "" {
		baseURL = pracaBaseURL
	}
	if city == "" {
		city = DefaultCity
	}
	return &PracaAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		city:    city,
		client:  client,
	}
}

// SearchURL builds the listing URL. praca.pl wants lowercase, comma-separated
// words without diacritics: "Młodszy Programista" -> "mlodszy,programista".
func (a *PracaAdapter) SearchURL(keyword string) string {
	words := strings.Fields(toASCII(strings.ToLower(keyword)))
	return fmt.Sprintf("%s/s-%s_m-%s_d-1.html", a.baseURL, joinEscaped(words, ","), a.city)
}

func (a *PracaAdapter) Scrape(ctx context.Context, keyword string) ([]model.JobRecord, error) {
	doc, err := fetchDocument(ctx, a.client, "praca", a.SearchURL(keyword))
	if err != nil {
		return nil, err
	}

	var jobs []model.JobRecord
	doc.Find(".listing__item").Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".listing__title").First()
		href, ok := title.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		jobs = append(jobs, model.JobRecord{
			Title:     text(title),
			Company:   text(item.Find(".listing__employer-name").First()),
			Location:  text(item.Find(".listing__origin span").Last()),
			Salary:    text(item.Find(".listing__main-details span").First()),
			Published: text(item.Find(".listing__secondary-details span").First()),
			OfferLink: absolutize(a.baseURL, href),
			Source:    "praca",
		}.Normalized())
	})
	return jobs, nil
}
