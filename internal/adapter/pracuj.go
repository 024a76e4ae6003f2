package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobfeed/internal/model"
)

const pracujBaseURL = "https://www.pracuj.pl"

// PracujAdapter scrapes the last-24h listings of pracuj.pl.
type PracujAdapter struct {
	baseURL string
	city    string
	client  *http.Client
}

// NewPracujAdapter creates a new adapter for pracuj.pl. Empty baseURL and
// city fall back to the public site and Warsaw.
func NewPracujAdapter(baseURL, city string, client *http.Client) *PracujAdapter {
	if baseURL == "" {
		baseURL = pracujBaseURL
	}
	if city == "" {
		city = DefaultCity
	}
	return &PracujAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		city:    city,
		client:  client,
	}
}

// SearchURL builds the listing URL for a keyword.
func (a *PracujAdapter) SearchURL(keyword string) string {
	return fmt.Sprintf("%s/praca/%s;kw/%s;wp/ostatnich%%2024h;p,1?rd=0",
		a.baseURL, url.PathEscape(strings.TrimSpace(keyword)), a.city)
}

// Scrape fetches the listing page and normalizes every tile into a JobRecord.
func (a *PracujAdapter) Scrape(ctx context.Context, keyword string) ([]model.JobRecord, error) {
	doc, err := fetchDocument(ctx, a.client, "pracuj", a.SearchURL(keyword))
	if err != nil {
		return nil, err
	}

	var jobs []model.JobRecord
	doc.Find(".tiles_cobg3mp").Each(func(_ int, tile *goquery.Selection) {
		title := tile.Find("[data-test='link-offer-title']").First()
		href, ok := title.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		jobs = append(jobs, model.JobRecord{
			Title:     text(title),
			Company:   text(tile.Find("[data-test='text-company-name']")),
			Location:  text(tile.Find("[data-test='text-region']")),
			Salary:    text(tile.Find("[data-test='offer-salary']")),
			Published: text(tile.Find(".tiles_a1nm2ekh")),
			OfferLink: absolutize(a.baseURL, href),
			Source:    "pracuj",
		}.Normalized())
	})
	return jobs, nil
}
