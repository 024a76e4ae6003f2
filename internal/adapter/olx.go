package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobfeed/internal/model"
)

const olxBaseURL = "https://www.olx.pl"

// OLXAdapter scrapes the newest-first job ads of olx.pl.
type OLXAdapter struct {
	baseURL string
	city    string
	client  *http.Client
}

func NewOLXAdapter(baseURL, city string, client *http.Client) *OLXAdapter {
	if baseURL == "" {
		baseURL = olxBaseURL
	}
	if city == "" {
		city = DefaultCity
	}
	return &OLXAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		city:    city,
		client:  client,
	}
}

// SearchURL builds the listing URL with escaped words joined by dashes.
func (a *OLXAdapter) SearchURL(keyword string) string {
	return fmt.Sprintf("%s/praca/%s/q-%s/?search%%5Border%%5D=created_at:desc",
		a.baseURL, a.city, joinEscaped(strings.Fields(keyword), "-"))
}

func (a *OLXAdapter) Scrape(ctx context.Context, keyword string) ([]model.JobRecord, error) {
	doc, err := fetchDocument(ctx, a.client, "olx", a.SearchURL(keyword))
	if err != nil {
		return nil, err
	}

	var jobs []model.JobRecord
	doc.Find(".jobs-ad-card.css-kmmxkx").Each(func(_ int, card *goquery.Selection) {
		title := card.Find(".css-13gxtrp").First()
		href, ok := title.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		jobs = append(jobs, model.JobRecord{
			Title:     text(title),
			Company:   text(card.Find(".css-w5qju7")),
			Location:  text(card.Find(".css-jw5wnz")),
			Salary:    text(card.Find(".css-ltt2h")),
			Published: text(card.Find(".css-1h96hyx")),
			OfferLink: absolutize(a.baseURL, href),
			Source:    "olx",
		}.Normalized())
	})
	return jobs, nil
}
