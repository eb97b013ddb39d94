// Package picture holds the indexed picture document and its client-facing form.
package picture

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pixxearch/pixxearch/internal/domain"
)

// Color is one dominant color of a picture, channels in 0-255.
type Color struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// Landmark is a recognized place. Present only when both a name and a
// location were detected.
type Landmark struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Record is the index document for one ingested picture.
// Written once at ingestion and never mutated.
type Record struct {
	Name     string
	Created  time.Time
	Labels   []string
	Objects  []string // may contain duplicates from the annotation source
	Colors   []Color  // dominance order, first = most dominant
	Text     string
	Landmark *Landmark
	Safe     bool
}

// Hit is one search hit as returned by the index.
type Hit struct {
	Record Record
	Score  float64
}

// SearchResult is the raw response envelope of the index.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Item is the display-ready form of a Record.
type Item struct {
	Name    string   `json:"name"`
	Labels  []string `json:"labels"`
	Objects []string `json:"objects"`
	Color   string   `json:"color"`
	Colors  []Color  `json:"colors"`
	Created string   `json:"created"`
}

// Page is one window of normalized results.
type Page struct {
	Pictures []Item `json:"pictures"`
	Total    int    `json:"total"`
	From     int    `json:"from"`
}

// EmptyPage returns a page with no pictures positioned at from.
func EmptyPage(from int) Page {
	return Page{Pictures: []Item{}, Total: 0, From: from}
}

// DocumentID derives the index document id from a picture name.
// The mapping is an encoding, so NameFromDocumentID reverses it.
func DocumentID(name string) string {
	return base64.URLEncoding.EncodeToString([]byte(name))
}

// NameFromDocumentID reverses DocumentID.
func NameFromDocumentID(id string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("%w: document id %q: %w", domain.ErrInvalidName, id, err)
	}
	return string(b), nil
}
