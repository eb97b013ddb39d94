package picture

import (
	"encoding/json"
	"fmt"
	"time"

	dompic "github.com/pixxearch/pixxearch/internal/domain/picture"
)

// document is the JSON shape stored for each picture.
type document struct {
	Name      string           `json:"name"`
	Created   string           `json:"created"`
	CreatedMS int64            `json:"created_ms"`
	Labels    []string         `json:"labels"`
	Objects   []string         `json:"objects"`
	Colors    []dompic.Color   `json:"colors"`
	Text      string           `json:"text,omitempty"`
	Landmark  *dompic.Landmark `json:"landmark,omitempty"`
	Safe      bool             `json:"safe"`
}

// colorDocument is one dominant color, stored as its own document.
type colorDocument struct {
	Picture string `json:"picture"`
	Rank    int    `json:"rank"`
	Red     int    `json:"red"`
	Green   int    `json:"green"`
	Blue    int    `json:"blue"`
}

func toDocument(r *dompic.Record) document {
	return document{
		Name:      r.Name,
		Created:   r.Created.UTC().Format(time.RFC3339Nano),
		CreatedMS: r.Created.UnixMilli(),
		Labels:    nonNil(r.Labels),
		Objects:   nonNil(r.Objects),
		Colors:    nonNil(r.Colors),
		Text:      r.Text,
		Landmark:  r.Landmark,
		Safe:      r.Safe,
	}
}

func (d *document) toRecord() dompic.Record {
	var created time.Time
	if d.CreatedMS > 0 {
		created = time.UnixMilli(d.CreatedMS).UTC()
	} else if t, err := time.Parse(time.RFC3339Nano, d.Created); err == nil {
		created = t
	}
	return dompic.Record{
		Name:     d.Name,
		Created:  created,
		Labels:   d.Labels,
		Objects:  d.Objects,
		Colors:   d.Colors,
		Text:     d.Text,
		Landmark: d.Landmark,
		Safe:     d.Safe,
	}
}

// decodeDocument parses a stored document. The JSON root may come back
// wrapped in a one-element array depending on the query dialect.
func decodeDocument(raw string) (dompic.Record, error) {
	data := []byte(raw)
	if len(data) > 0 && data[0] == '[' {
		var wrapped []document
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return dompic.Record{}, fmt.Errorf("decode picture: %w", err)
		}
		if len(wrapped) == 0 {
			return dompic.Record{}, fmt.Errorf("decode picture: empty result")
		}
		return wrapped[0].toRecord(), nil
	}

	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return dompic.Record{}, fmt.Errorf("decode picture: %w", err)
	}
	return d.toRecord(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
