// Package announce holds the company catalog and the announcement index that
// filter queries resolve against.
package announce

import "time"

// Company is one entry in the listed-company catalog.
type Company struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
}

// Announcement is one indexed company announcement. Key is the object key of
// the source document; when a markdown rendition exists the key is rewritten
// to point at it.
type Announcement struct {
	Key            string    `json:"key"`
	Ticker         string    `json:"ticker"`
	PublishedAt    time.Time `json:"published_at"`
	Types          string    `json:"types"`
	PriceSensitive bool      `json:"price_sensitive"`
	Markdown       bool      `json:"markdown"`
	URL            string    `json:"url,omitempty"`
	Content        string    `json:"content,omitempty"`
}

// TypeLabels are the filter labels a user can select, in display order.
var TypeLabels = []string{
	"Cashflow Reports",
	"Mining studies/resources",
	"Placements",
	"Shares 3B's, 2A's",
	"Presentations",
}
