package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const pracaFixture = `<html><body><ul>
<li class="listing__item">
  <a class="listing__title" href="/mlodszy-programista-go_123.html">Młodszy Programista Go</a>
  <a class="listing__employer-name">Gamma S.A.</a>
  <a class="listing__employer-name">ignored</a>
  <div class="listing__origin"><span>Gamma</span><span>Warszawa</span></div>
  <div class="listing__main-details"><span>9000 zł</span><span>umowa o pracę</span></div>
  <div class="listing__secondary-details"><span>dzisiaj</span><span>pełny etat</span></div>
</li>
<li class="listing__item">
  <span class="listing__title">promoted without link</span>
</li>
</ul></body></html>`

func TestPracaScrape_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(pracaFixture))
	}))
	defer srv.Close()

	a := NewPracaAdapter(srv.URL, "krakow", srv.Client())
	jobs, err := a.Scrape(context.Background(), "Młodszy Programista")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/s-mlodszy,programista_m-krakow_d-1.html" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Młodszy Programista Go" {
		t.Errorf("unexpected title %q", j.Title)
	}
	if j.Company != "Gamma S.A." {
		t.Errorf("expected first employer name, got %q", j.Company)
	}
	if j.Location != "Warszawa" {
		t.Errorf("expected last origin span, got %q", j.Location)
	}
	if j.Salary != "9000 zł" {
		t.Errorf("unexpected salary %q", j.Salary)
	}
	if j.Published != "dzisiaj" {
		t.Errorf("unexpected published %q", j.Published)
	}
	if j.OfferLink != srv.URL+"/mlodszy-programista-go_123.html" {
		t.Errorf("unexpected link %q", j.OfferLink)
	}
}

func TestPracaScrape_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewPracaAdapter(srv.URL, "", srv.Client())
	if _, err := a.Scrape(context.Background(), "go"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestToASCII(t *testing.T) {
	if got := toASCII("Zażółć gęślą jaźń ŁÓDŹ"); got != "Zazolc gesla jazn LODZ" {
		t.Errorf("toASCII = %q", got)
	}
}

func TestPracaSearchURL_FoldsAndEscapes(t *testing.T) {
	a := NewPracaAdapter("", "", http.DefaultClient)
	tests := []struct {
		keyword string
		want    string
	}{
		{"Młodszy Programista", "https://www.praca.pl/s-mlodszy,programista_m-warszawa_d-1.html"},
		{"ui/ux designer", "https://www.praca.pl/s-ui%2Fux,designer_m-warszawa_d-1.html"},
		{"c# dev?", "https://www.praca.pl/s-c%23,dev%3F_m-warszawa_d-1.html"},
	}
	for _, tt := range tests {
		got := a.SearchURL(tt.keyword)
		if got != tt.want {
			t.Errorf("SearchURL(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
		u, err := url.Parse(got)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", got, err)
		}
		if strings.Count(u.EscapedPath(), "/") != 1 || u.Fragment != "" || u.RawQuery != "" {
			t.Errorf("SearchURL(%q) split the keyword: path=%q fragment=%q query=%q", tt.keyword, u.EscapedPath(), u.Fragment, u.RawQuery)
		}
	}
}
