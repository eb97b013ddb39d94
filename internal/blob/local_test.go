package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixxearch/pixxearch/internal/domain"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocal_Put(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	n, err := store.Put(context.Background(), "pictures", "cat.jpg", strings.NewReader("meow"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 4 {
		t.Errorf("written = %d, want 4", n)
	}
	got, err := os.ReadFile(filepath.Join(store.Root(), "pictures", "cat.jpg"))
	if err != nil || string(got) != "meow" {
		t.Errorf("content = %q, err = %v", got, err)
	}

	if _, err := store.Put(context.Background(), "pictures", "cat.jpg", strings.NewReader("purr")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = os.ReadFile(filepath.Join(store.Root(), "pictures", "cat.jpg"))
	if string(got) != "purr" {
		t.Errorf("content after overwrite = %q", got)
	}
}

func TestLocal_PutFailedReadLeavesNothing(t *testing.T) {
	store, _ := NewLocal(t.TempDir())

	if _, err := store.Put(context.Background(), "pictures", "x.jpg", failingReader{}); err == nil {
		t.Fatal("expected error")
	}
	entries, err := os.ReadDir(filepath.Join(store.Root(), "pictures"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("bucket should be empty, found %d entries", len(entries))
	}
}

func TestLocal_PutCanceled(t *testing.T) {
	store, _ := NewLocal(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "pictures", "x.jpg", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"cat.jpg", false},
		{"plage été.png", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../etc/passwd", true},
		{`a\b.jpg`, true},
		{".hidden", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidName(tc.name)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidName(%q) = %v, wantErr %v", tc.name, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestLocal_HealthCheck(t *testing.T) {
	store, _ := NewLocal(t.TempDir())
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	if err := os.RemoveAll(store.Root()); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}
