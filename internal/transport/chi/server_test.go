package chi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
	uploaduc "github.com/pixxearch/pixxearch/internal/usecase/upload"
)

func decodePage(t *testing.T, rr *httptest.ResponseRecorder) picture.Page {
	t.Helper()
	var page picture.Page
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return page
}

// --- GET /api/pictures ---

func TestListPictures_LabelsAndOffset(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	h.gateway.res = picture.SearchResult{Total: 41, Hits: []picture.Hit{{Record: picture.Record{
		Name:    "beach.jpg",
		Created: fixedNow.Add(-3 * time.Hour),
		Objects: []string{"Person", "Person", "Dog"},
		Colors:  []picture.Color{{Red: 10, Green: 20, Blue: 30}},
	}}}}

	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?l=beach&l=sunset&from=40", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}

	req := h.gateway.reqs[0]
	if req.Text() != nil || req.Nested() != nil {
		t.Errorf("unexpected clauses: %s", req)
	}
	if req.From() != 40 || req.Size() != 40 {
		t.Errorf("from/size = %d/%d", req.From(), req.Size())
	}
	var terms []string
	for _, f := range req.Filters() {
		terms = append(terms, f.Key()+"="+f.Match())
	}
	if strings.Join(terms, ",") != "labels=beach,labels=sunset" {
		t.Errorf("filters = %v", terms)
	}

	page := decodePage(t, rr)
	if page.Total != 41 || page.From != 40 || len(page.Pictures) != 1 {
		t.Fatalf("page = %+v", page)
	}
	item := page.Pictures[0]
	if item.Color != "rgb(10, 20, 30)" || item.Created != "3 hours ago" {
		t.Errorf("item = %+v", item)
	}
	if strings.Join(item.Objects, ",") != "Person,Dog" {
		t.Errorf("objects = %v", item.Objects)
	}
}

func TestListPictures_TextColorAndObjects(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})

	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?q=eiffel&c=%23202020&c=zzz&o=Dog", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	req := h.gateway.reqs[0]
	if req.Text() == nil || req.Text().Query() != "eiffel" {
		t.Errorf("text = %+v", req.Text())
	}
	n := req.Nested()
	if n == nil || n.Path() != request.PathColors {
		t.Fatalf("nested = %+v", n)
	}
	red := n.Filter().Must()[0].Range()
	if *red.GTE() != 12 || *red.LTE() != 52 {
		t.Errorf("red range = %s", red)
	}
	if len(req.Filters()) != 1 || req.Filters()[0].Key() != request.FieldObjects {
		t.Errorf("filters = %v", req.Filters())
	}
}

func TestListPictures_GatewayFailureFailsOpen(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	h.gateway.err = errBoom

	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?l=Sky&from=80", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"pictures":[],"total":0,"from":80}` {
		t.Errorf("body = %s", got)
	}
}

func TestListPictures_BadFrom(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?from=abc", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if h.gateway.reqs[0].From() != 0 {
		t.Errorf("from = %d, want 0", h.gateway.reqs[0].From())
	}
}

func TestListPictures_EmptyLabelIsBrowse(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?l=&o=", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if len(h.gateway.reqs) != 1 {
		t.Fatalf("gateway calls = %d, want 1", len(h.gateway.reqs))
	}
	if !h.gateway.reqs[0].MatchesAll() {
		t.Errorf("expected browse request, got %s", h.gateway.reqs[0])
	}
}

func TestListPictures_RepeatedText(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/pictures?q=a&q=b", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil || errResp.Code != CodeBadRequest {
		t.Errorf("error = %+v, %v", errResp, err)
	}
}

// --- POST /api/pictures ---

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("comment", "ignored"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadPicture_Redirects(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	body, ct := multipartBody(t, "picture", "cat.jpg", "meow")
	req := httptest.NewRequest(http.MethodPost, "/api/pictures", body)
	req.Header.Set("Content-Type", ct)

	rr := h.do(req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("status = %d location %q body %s", rr.Code, rr.Header().Get("Location"), rr.Body)
	}
	if h.blobs.name != "cat.jpg" || string(h.blobs.data) != "meow" {
		t.Errorf("stored %s = %q", h.blobs.name, h.blobs.data)
	}
	if h.events.fields["name"] != "cat.jpg" || h.events.fields["bucket"] != "pictures" {
		t.Errorf("event = %v", h.events.fields)
	}
}

func TestUploadPicture_Errors(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content string
		ctype   string
		status  int
		code    ErrorCode
	}{
		{"no file", "", "", "", http.StatusBadRequest, CodeMissingFile},
		{"wrong field", "document", "x", "", http.StatusBadRequest, CodeMissingFile},
		{"too large", "picture", strings.Repeat("x", 32), "", http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"not multipart", "", "", "application/json", http.StatusBadRequest, CodeBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newAPIHarness(t, uploaduc.Config{MaxBytes: 16})
			body, ct := multipartBody(t, tc.field, "a.jpg", tc.content)
			if tc.ctype != "" {
				ct = tc.ctype
			}
			req := httptest.NewRequest(http.MethodPost, "/api/pictures", body)
			req.Header.Set("Content-Type", ct)

			rr := h.do(req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.status, rr.Body)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if errResp.Code != tc.code {
				t.Errorf("code = %q, want %q", errResp.Code, tc.code)
			}
			if h.events.fields != nil {
				t.Error("failed upload must not publish an event")
			}
		})
	}
}

func TestUploadPicture_Throttled(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{RatePerSec: 0.001, Burst: 1})
	for i, want := range []int{http.StatusFound, http.StatusTooManyRequests} {
		body, ct := multipartBody(t, "picture", "a.jpg", "x")
		req := httptest.NewRequest(http.MethodPost, "/api/pictures", body)
		req.Header.Set("Content-Type", ct)
		if rr := h.do(req); rr.Code != want {
			t.Errorf("upload %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}

// --- Redirects ---

func TestRedirects(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/api/pictures/cat.jpg", http.StatusFound, "https://cdn.example.com/pictures/cat.jpg"},
		{"/api/thumbnails/cat.jpg", http.StatusFound, "https://cdn.example.com/thumbnails/cat.jpg"},
		{"/api/collage", http.StatusFound, "https://cdn.example.com/thumbnails/collage.png?" +
			"1790856000000"},
		{"/api/pictures/.env", http.StatusBadRequest, ""},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := h.do(httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if got := rr.Header().Get("Location"); got != tc.location {
				t.Errorf("Location = %q, want %q", got, tc.location)
			}
		})
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})

	rr := h.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v", resp)
	}

	h.pinger.err = errBoom
	if rr := h.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody)); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newAPIHarness(t, uploaduc.Config{})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
