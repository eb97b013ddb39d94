package blob

import (
	"testing"
	"time"
)

func TestURLs(t *testing.T) {
	u := NewURLs("https://storage.example.com/", "pics", "thumbs")

	if got := u.Picture("cat.jpg"); got != "https://storage.example.com/pics/cat.jpg" {
		t.Errorf("Picture() = %q", got)
	}
	if got := u.Thumbnail("plage été.png"); got != "https://storage.example.com/thumbs/plage%20%C3%A9t%C3%A9.png" {
		t.Errorf("Thumbnail() = %q", got)
	}
	now := time.UnixMilli(1700000000123)
	if got := u.Collage(now); got != "https://storage.example.com/thumbs/collage.png?1700000000123" {
		t.Errorf("Collage() = %q", got)
	}
}

func TestURLs_LocalBase(t *testing.T) {
	u := NewURLs("/blobs", "pictures", "thumbnails")
	if got := u.Picture("a?b.jpg"); got != "/blobs/pictures/a%3Fb.jpg" {
		t.Errorf("Picture() = %q", got)
	}
}
