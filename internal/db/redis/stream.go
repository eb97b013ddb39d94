package redis

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/pixxearch/pixxearch/internal/db"
)

// XAdd appends an entry with an auto-generated id. Field order is sorted so
// the command is deterministic.
func (s *Store) XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) (string, error) {
	if stream == "" {
		return "", errors.New("stream name is required")
	}
	if len(fields) == 0 {
		return "", errors.New("at least one field is required")
	}

	args := make([]string, 0, 4+2*len(fields))
	if maxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(maxLen, 10))
	}
	args = append(args, "*")

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		args = append(args, k, fields[k])
	}

	cmd := s.b().Arbitrary("XADD").Keys(stream).Args(args...).Build()
	id, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}
