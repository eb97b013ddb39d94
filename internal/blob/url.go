package blob

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CollageName is the object holding the rendered collage in the
// thumbnails bucket.
const CollageName = "collage.png"

// URLs resolves public object URLs of the picture and thumbnail buckets.
type URLs struct {
	base       string
	pictures   string
	thumbnails string
}

// NewURLs creates a resolver. base may be absolute ("https://cdn.example")
// or a path served by this process ("/blobs").
func NewURLs(base, pictures, thumbnails string) URLs {
	return URLs{base: strings.TrimRight(base, "/"), pictures: pictures, thumbnails: thumbnails}
}

// Picture returns the URL of an uploaded picture.
func (u URLs) Picture(name string) string { return u.object(u.pictures, name) }

// Thumbnail returns the URL of a picture's thumbnail.
func (u URLs) Thumbnail(name string) string { return u.object(u.thumbnails, name) }

// Collage returns the collage URL with a cache-busting query made of the
// current unix time in milliseconds.
func (u URLs) Collage(now time.Time) string {
	return u.object(u.thumbnails, CollageName) + "?" + strconv.FormatInt(now.UnixMilli(), 10)
}

func (u URLs) object(bucket, name string) string {
	return u.base + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}
