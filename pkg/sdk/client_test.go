package pixxearch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts []Option
	}{
		{"no scheme", "localhost:8080", nil},
		{"ftp", "ftp://example.com", nil},
		{"zero page size", "http://example.com", []Option{WithPageSize(0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.url, tc.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.base.String(); got != "http://example.com" {
		t.Errorf("base = %q", got)
	}
	if c.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", c.PageSize(), DefaultPageSize)
	}
}

func TestClient_Pictures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pictures" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if want := "q=red+car&c=%23202020&l=Sky&from=40"; r.URL.RawQuery != want {
			t.Errorf("query = %q, want %q", r.URL.RawQuery, want)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pictures":[{"name":"cat.jpg","labels":["Cat"],"objects":[],"color":"rgb(1, 2, 3)","colors":[{"red":1,"green":2,"blue":3}],"created":"3 days ago"}],"total":41,"from":40}`)
	}, WithAPIKey("secret"))

	state := NewState("red car", []Swatch{{Red: 32, Green: 32, Blue: 32}}, []string{"Sky"}, nil, 40)
	page, err := c.Pictures(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 41 || page.From != 40 {
		t.Errorf("total/from = %d/%d", page.Total, page.From)
	}
	if len(page.Pictures) != 1 || page.Pictures[0].Name != "cat.jpg" {
		t.Fatalf("pictures = %+v", page.Pictures)
	}
	if page.Pictures[0].Colors[0] != (Color{Red: 1, Green: 2, Blue: 3}) {
		t.Errorf("colors = %+v", page.Pictures[0].Colors)
	}
}

func TestClient_Pictures_NullPictures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"pictures":null,"total":0,"from":0}`)
	})
	page, err := c.Pictures(context.Background(), State{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pictures == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"code":"rate_limited","message":"slow down"}`, ErrRateLimited, "rate_limited"},
		{"rate limited plain body", http.StatusTooManyRequests, "too many", ErrRateLimited, "rate_limited"},
		{"unauthorized", http.StatusUnauthorized, `{"code":"unauthorized","message":"missing key"}`, ErrUnauthorized, "unauthorized"},
		{"not found", http.StatusNotFound, `{"code":"not_found","message":"nope"}`, ErrNotFound, "not_found"},
		{"bad gateway", http.StatusBadGateway, "<html>", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Pictures(context.Background(), State{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Code != tc.code {
				t.Errorf("APIError = %+v", apiErr)
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tc.sentinel)
			}
		})
	}
}

func TestClient_Pictures_Canceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"pictures":[],"total":0,"from":0}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Pictures(ctx, State{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pictures" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("picture")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.jpg" || string(data) != "jpegbytes" {
			t.Errorf("got %q with %q", header.Filename, data)
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})

	if err := c.Upload(context.Background(), "cat.jpg", strings.NewReader("jpegbytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Upload_TooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"code":"payload_too_large","message":"too big"}`)
	})

	err := c.Upload(context.Background(), "big.jpg", strings.NewReader(strings.Repeat("x", 1024)))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestClient_RedirectLocations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/pictures/plage%20%C3%A9t%C3%A9.jpg":
			http.Redirect(w, r, "/blobs/pictures/plage%20%C3%A9t%C3%A9.jpg", http.StatusFound)
		case "/api/thumbnails/cat.jpg":
			http.Redirect(w, r, "https://cdn.example.com/thumbnails/cat.jpg", http.StatusFound)
		case "/api/collage":
			http.Redirect(w, r, "https://cdn.example.com/thumbnails/collage.png?1790856000000", http.StatusFound)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"not_found","message":"no route"}`)
		}
	})
	ctx := context.Background()

	got, err := c.PictureURL(ctx, "plage été.jpg")
	if err != nil {
		t.Fatalf("PictureURL: %v", err)
	}
	if !strings.HasSuffix(got, "/blobs/pictures/plage%20%C3%A9t%C3%A9.jpg") {
		t.Errorf("PictureURL = %q", got)
	}

	got, err = c.ThumbnailURL(ctx, "cat.jpg")
	if err != nil || got != "https://cdn.example.com/thumbnails/cat.jpg" {
		t.Errorf("ThumbnailURL = %q, %v", got, err)
	}

	got, err = c.CollageURL(ctx)
	if err != nil || got != "https://cdn.example.com/thumbnails/collage.png?1790856000000" {
		t.Errorf("CollageURL = %q, %v", got, err)
	}

	if _, err := c.ThumbnailURL(ctx, "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"ok", http.StatusOK, `{"status":"ok","checks":{"database":"ok","storage":"ok"}}`, "ok"},
		{"unhealthy", http.StatusServiceUnavailable, `{"status":"error","checks":{"database":"error"}}`, "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			hs, err := c.Health(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hs.Status != tc.want {
				t.Errorf("Status = %q, want %q", hs.Status, tc.want)
			}
		})
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"pictures":[],"total":0,"from":0}`)
	}, WithPrometheus(reg))

	if _, err := c.Pictures(context.Background(), State{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("pictures", "ok")); got != 1 {
		t.Errorf("pictures ok = %v, want 1", got)
	}

	// A second client on the same registry reuses the collectors.
	if _, err := New("http://example.com", WithPrometheus(reg)); err != nil {
		t.Fatalf("second client: %v", err)
	}
}
