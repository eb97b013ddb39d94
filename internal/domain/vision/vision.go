// Package vision describes the subset of an image annotation response
// (images:annotate) that the indexer reads.
package vision

// BatchAnnotateResponse is the top-level annotation payload.
type BatchAnnotateResponse struct {
	Responses []AnnotateImageResponse `json:"responses"`
}

// First returns the first image response, or nil when there is none.
func (r *BatchAnnotateResponse) First() *AnnotateImageResponse {
	if r == nil || len(r.Responses) == 0 {
		return nil
	}
	return &r.Responses[0]
}

// AnnotateImageResponse holds the annotations for one image.
type AnnotateImageResponse struct {
	LabelAnnotations           []EntityAnnotation          `json:"labelAnnotations"`
	LandmarkAnnotations        []EntityAnnotation          `json:"landmarkAnnotations"`
	LocalizedObjectAnnotations []LocalizedObjectAnnotation `json:"localizedObjectAnnotations"`
	FullTextAnnotation         *TextAnnotation             `json:"fullTextAnnotation"`
	ImagePropertiesAnnotation  *ImageProperties            `json:"imagePropertiesAnnotation"`
	SafeSearchAnnotation       *SafeSearchAnnotation       `json:"safeSearchAnnotation"`
	Error                      *Status                     `json:"error"`
}

// EntityAnnotation is a label or landmark.
type EntityAnnotation struct {
	Description string         `json:"description"`
	Score       float64        `json:"score"`
	Locations   []LocationInfo `json:"locations"`
}

// LocationInfo wraps a coordinate.
type LocationInfo struct {
	LatLng *LatLng `json:"latLng"`
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocalizedObjectAnnotation is a detected object.
type LocalizedObjectAnnotation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// TextAnnotation is the OCR result.
type TextAnnotation struct {
	Text string `json:"text"`
}

// ImageProperties carries the dominant colors.
type ImageProperties struct {
	DominantColors *DominantColorsAnnotation `json:"dominantColors"`
}

// DominantColorsAnnotation lists colors by prevalence.
type DominantColorsAnnotation struct {
	Colors []ColorInfo `json:"colors"`
}

// ColorInfo is one dominant color with its weight.
type ColorInfo struct {
	Color         *Color  `json:"color"`
	Score         float64 `json:"score"`
	PixelFraction float64 `json:"pixelFraction"`
}

// Color channels are floats in 0-255; absent channels decode as 0.
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// SafeSearchAnnotation holds likelihood strings such as "VERY_UNLIKELY".
type SafeSearchAnnotation struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
	Racy     string `json:"racy"`
}

// Status is an annotation error reported per image.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
