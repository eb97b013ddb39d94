// Package blob stores uploaded pictures in buckets and resolves their
// public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixxearch/pixxearch/internal/domain"
)

// Local keeps buckets as directories under a root path.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string { return l.root }

// Put streams r into bucket/name and returns the number of bytes written.
// The object becomes visible only once fully written; a failed read leaves
// no partial object behind.
func (l *Local) Put(ctx context.Context, bucket, name string, r io.Reader) (int64, error) {
	if err := ValidName(bucket); err != nil {
		return 0, err
	}
	if err := ValidName(name); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir := filepath.Join(l.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp object: %w", err)
	}
	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return n, fmt.Errorf("write %s/%s: %w", bucket, name, copyErr)
		}
		return n, fmt.Errorf("close %s/%s: %w", bucket, name, closeErr)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("commit %s/%s: %w", bucket, name, err)
	}
	return n, nil
}

// HealthCheck verifies the root is a writable directory.
func (l *Local) HealthCheck(_ context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("stat blob root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob root %s is not a directory", l.root)
	}
	f, err := os.CreateTemp(l.root, ".health.*")
	if err != nil {
		return fmt.Errorf("blob root not writable: %w", err)
	}
	name := f.Name()
	return errors.Join(f.Close(), os.Remove(name))
}

// ValidName rejects object and bucket names that would escape their
// directory or be hidden.
func ValidName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", domain.ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q is hidden", domain.ErrInvalidName, name)
	}
	return nil
}
