package picture

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pixxearch/pixxearch/internal/db"
	dompic "github.com/pixxearch/pixxearch/internal/domain/picture"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetMultiFn func(ctx context.Context, items []db.JSONSetItem) error
	delFn          func(ctx context.Context, keys ...string) error
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
	searchFn       func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error

	queries []*db.SearchQuery
}

var _ store = (*mockStore)(nil)

func (m *mockStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if m.jsonSetMultiFn != nil {
		return m.jsonSetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	m.queries = append(m.queries, q)
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, ""), ms
}

func testRecord(t *testing.T) dompic.Record {
	t.Helper()
	return dompic.Record{
		Name:    "cat.jpg",
		Created: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Labels:  []string{"Cat", "Whiskers"},
		Objects: []string{"Cat", "Cat"},
		Colors: []dompic.Color{
			{Red: 32, Green: 32, Blue: 32},
			{Red: 200, Green: 180, Blue: 90},
		},
		Text:     "MEOW",
		Landmark: &dompic.Landmark{Name: "Louvre", Latitude: 48.86, Longitude: 2.33},
		Safe:     true,
	}
}

// pictureEntry renders a search entry as the store returns it for RETURN 1 $.
func pictureEntry(t *testing.T, name string, score float64, created time.Time) db.SearchEntry {
	t.Helper()
	rec := dompic.Record{Name: name, Created: created}
	doc := toDocument(&rec)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return db.SearchEntry{
		Key:    "pixxearch:pic:" + dompic.DocumentID(name),
		Score:  score,
		Fields: map[string]string{"$": string(data)},
	}
}
