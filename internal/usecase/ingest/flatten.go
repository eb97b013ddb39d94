package ingest

import (
	"math"
	"time"

	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/vision"
)

// Flatten maps one image annotation onto the indexed record. Pictures
// reaching the index have passed moderation upstream, so Safe is always set.
func Flatten(name string, resp *vision.AnnotateImageResponse, now time.Time) picture.Record {
	rec := picture.Record{
		Name:    name,
		Created: now.UTC(),
		Labels:  []string{},
		Objects: []string{},
		Colors:  []picture.Color{},
		Safe:    true,
	}
	if resp == nil {
		return rec
	}

	for _, l := range resp.LabelAnnotations {
		rec.Labels = append(rec.Labels, l.Description)
	}
	for _, o := range resp.LocalizedObjectAnnotations {
		rec.Objects = append(rec.Objects, o.Name)
	}
	if resp.FullTextAnnotation != nil {
		rec.Text = resp.FullTextAnnotation.Text
	}
	if p := resp.ImagePropertiesAnnotation; p != nil && p.DominantColors != nil {
		for _, ci := range p.DominantColors.Colors {
			rec.Colors = append(rec.Colors, flattenColor(ci.Color))
		}
	}
	rec.Landmark = flattenLandmark(resp.LandmarkAnnotations)
	return rec
}

func flattenColor(c *vision.Color) picture.Color {
	if c == nil {
		return picture.Color{}
	}
	return picture.Color{Red: channel(c.Red), Green: channel(c.Green), Blue: channel(c.Blue)}
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(255, v))))
}

// flattenLandmark keeps the first landmark, and only when it has both a
// name and a location.
func flattenLandmark(anns []vision.EntityAnnotation) *picture.Landmark {
	if len(anns) == 0 {
		return nil
	}
	a := anns[0]
	if a.Description == "" || len(a.Locations) == 0 || a.Locations[0].LatLng == nil {
		return nil
	}
	ll := a.Locations[0].LatLng
	return &picture.Landmark{Name: a.Description, Latitude: ll.Latitude, Longitude: ll.Longitude}
}
