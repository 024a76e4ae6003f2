package adapter

import (
	"fmt"
	"net/http"

	"github.com/amishk599/jobfeed/internal/model"
)

// DefaultCity is the city segment used when a source has none configured.
const DefaultCity = "warszawa"

// Names lists the supported job boards in their default registration order.
var Names = []string{"pracuj", "praca", "olx"}

// New returns the scraper for the named job board.
func New(name, baseURL, city string, client *http.Client) (model.SiteScraper, error) {
	switch name {
	case "pracuj":
		return NewPracujAdapter(baseURL, city, client), nil
	case "praca":
		return NewPracaAdapter(baseURL, city, client), nil
	case "olx":
		return NewOLXAdapter(baseURL, city, client), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}
