package model

import "context"

// NotSpecified fills optional JobRecord fields a source did not provide.
const NotSpecified = "not specified"

// JobRecord is the unified representation of a listing from any job board.
// OfferLink is the identity: two records with the same link are the same
// listing even if the other fields drift between polls.
type JobRecord struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Salary    string `json:"salary"`    // free-form, may be NotSpecified
	Published string `json:"published"` // free-form relative or absolute date
	OfferLink string `json:"offerLink"`
	Source    string `json:"source"` // board name, informational only
}

// Normalized returns a copy with blank optional fields replaced by NotSpecified.
func (r JobRecord) Normalized() JobRecord {
	for _, f := range []*string{&r.Title, &r.Company, &r.Location, &r.Salary, &r.Published} {
		if *f == "" {
			*f = NotSpecified
		}
	}
	return r
}

// SiteScraper queries one job board. It may fail; callers that need the
// never-fail contract wrap it with adapter.Contain.
type SiteScraper interface {
	Scrape(ctx context.Context, keyword string) ([]JobRecord, error)
}

// Source produces the current listings of one job board for a keyword.
// Implementations never fail: any error degrades to an empty result.
type Source interface {
	Name() string
	Fetch(ctx context.Context, keyword string) []JobRecord
}
