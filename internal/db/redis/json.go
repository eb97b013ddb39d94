package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/pixxearch/pixxearch/internal/db"
)

// JSONSetMulti stores multiple documents in a single DoMulti round-trip.
// The first failing item is reported; earlier items stay written.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmds[i] = s.jsonSetCmd(item.Key, item.Path, item.Data)
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

func (s *Store) jsonSetCmd(key, path string, data []byte) rueidis.Completed {
	if path == "" {
		path = "$"
	}
	return s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
}
