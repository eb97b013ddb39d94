package chi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixxearch/pixxearch/internal/blob"
	"github.com/pixxearch/pixxearch/internal/domain/picture"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
	healthuc "github.com/pixxearch/pixxearch/internal/usecase/health"
	ingestuc "github.com/pixxearch/pixxearch/internal/usecase/ingest"
	searchuc "github.com/pixxearch/pixxearch/internal/usecase/search"
	uploaduc "github.com/pixxearch/pixxearch/internal/usecase/upload"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// --- Fakes ---

type fakeGateway struct {
	res  picture.SearchResult
	err  error
	reqs []request.Request
}

func (f *fakeGateway) Search(_ context.Context, req request.Request) (picture.SearchResult, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

type fakeBlobs struct {
	name string
	data []byte
}

func (f *fakeBlobs) Put(_ context.Context, _, name string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.name, f.data = name, data
	return int64(len(data)), nil
}

type fakeEvents struct {
	fields map[string]string
}

func (f *fakeEvents) XAdd(_ context.Context, _ string, _ int64, fields map[string]string) (string, error) {
	f.fields = fields
	return "1-0", nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeWriter struct {
	saved []picture.Record
	err   error
}

func (f *fakeWriter) Save(_ context.Context, rec picture.Record) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, rec)
	return nil
}

// --- Harness ---

type apiHarness struct {
	router  http.Handler
	gateway *fakeGateway
	blobs   *fakeBlobs
	events  *fakeEvents
	pinger  *fakePinger
}

func newAPIHarness(t *testing.T, uploadCfg uploaduc.Config) *apiHarness {
	t.Helper()
	h := &apiHarness{
		gateway: &fakeGateway{},
		blobs:   &fakeBlobs{},
		events:  &fakeEvents{},
		pinger:  &fakePinger{},
	}
	if uploadCfg.Bucket == "" {
		uploadCfg.Bucket = "pictures"
	}
	search := searchuc.New(h.gateway, searchuc.NewNormalizer(func() time.Time { return fixedNow }))
	uploads := uploaduc.New(h.blobs, h.events, uploadCfg)
	health := healthuc.New(h.pinger, nil)
	urls := blob.NewURLs("https://cdn.example.com", "pictures", "thumbnails")

	srv := NewServer(search, uploads, urls, health, zap.NewNop())
	srv.now = func() time.Time { return fixedNow }

	r := chi.NewRouter()
	r.Use(Recoverer(zap.NewNop()))
	srv.Routes(r)
	h.router = r
	return h
}

func (h *apiHarness) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func newIndexerRouter(t *testing.T, w *fakeWriter) http.Handler {
	t.Helper()
	ingest := ingestuc.New(w).WithClock(func() time.Time { return fixedNow })
	srv := NewIndexerServer(ingest, healthuc.New(&fakePinger{}, nil), zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

var errBoom = errors.New("boom")
