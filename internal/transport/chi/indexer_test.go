package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const annotation = `{"responses":[{
	"labelAnnotations":[{"description":"Sky","score":0.97}],
	"localizedObjectAnnotations":[{"name":"Person"}],
	"fullTextAnnotation":{"text":"HELLO"},
	"imagePropertiesAnnotation":{"dominantColors":{"colors":[{"color":{"red":12,"blue":200},"score":0.4}]}},
	"landmarkAnnotations":[{"description":"Louvre","locations":[{"latLng":{"latitude":48.86,"longitude":2.33}}]}]
}]}`

func postIndex(t *testing.T, h http.Handler, target, body string) (*httptest.ResponseRecorder, IndexResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	var resp IndexResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr, resp
}

func TestIndex_Success(t *testing.T) {
	w := &fakeWriter{}
	rr, resp := postIndex(t, newIndexerRouter(t, w), "/index?id=louvre%20night.jpg", annotation)

	if rr.Code != http.StatusOK || !resp.Indexed {
		t.Fatalf("status = %d indexed = %v", rr.Code, resp.Indexed)
	}
	if len(w.saved) != 1 {
		t.Fatalf("saved = %d records", len(w.saved))
	}
	rec := w.saved[0]
	if rec.Name != "louvre night.jpg" || !rec.Created.Equal(fixedNow) || !rec.Safe {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Colors) != 1 || rec.Colors[0].Green != 0 || rec.Colors[0].Blue != 200 {
		t.Errorf("colors = %+v", rec.Colors)
	}
	if rec.Landmark == nil || rec.Landmark.Name != "Louvre" {
		t.Errorf("landmark = %+v", rec.Landmark)
	}
}

func TestIndex_Failures(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		err    error
	}{
		{"missing id", "/index", annotation, nil},
		{"empty id", "/index?id=", annotation, nil},
		{"malformed body", "/index?id=a.jpg", "{", nil},
		{"no responses", "/index?id=a.jpg", `{"responses":[]}`, nil},
		{"store down", "/index?id=a.jpg", annotation, errBoom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := &fakeWriter{err: tc.err}
			rr, resp := postIndex(t, newIndexerRouter(t, w), tc.target, tc.body)
			if rr.Code != http.StatusBadRequest || resp.Indexed {
				t.Errorf("status = %d indexed = %v, want 400 false", rr.Code, resp.Indexed)
			}
			if len(w.saved) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestIndexer_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	newIndexerRouter(t, &fakeWriter{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
