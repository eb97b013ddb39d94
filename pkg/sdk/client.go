package pixxearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pixxearch/pixxearch/internal/version"
)

const uploadField = "picture"

// Client is the pixxearch SDK entry point.
type Client struct {
	base      *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	pageSize  int
	obs       *observer
}

// New creates a Client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{pageSize: DefaultPageSize}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("pixxearch: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("pixxearch: base url %q must be http or https", baseURL)
	}
	if cfg.pageSize <= 0 {
		return nil, fmt.Errorf("pixxearch: page size must be positive, got %d", cfg.pageSize)
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		hc = &copied
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	ua := cfg.userAgent
	if ua == "" {
		ua = "pixxearch-go/" + version.Version
	}

	return &Client{
		base:      u,
		http:      hc,
		apiKey:    cfg.apiKey,
		userAgent: ua,
		pageSize:  cfg.pageSize,
		obs:       obs,
	}, nil
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int { return c.pageSize }

// Pictures runs a search for the given facet state.
func (c *Client) Pictures(ctx context.Context, state State) (page Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("pictures", start, err) }()

	resp, err := c.do(ctx, http.MethodGet, "/api/pictures?"+state.Encode(), nil, "")
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode pictures: %w", err)
	}
	if page.Pictures == nil {
		page.Pictures = []Item{}
	}
	return page, nil
}

// Upload sends one picture as multipart/form-data. The body is streamed.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload", start, err) }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, werr := mw.CreateFormFile(uploadField, filename)
		if werr == nil {
			_, werr = io.Copy(part, r)
		}
		if werr == nil {
			werr = mw.Close()
		}
		pw.CloseWithError(werr)
	}()

	resp, err := c.do(ctx, http.MethodPost, "/api/pictures", pr, mw.FormDataContentType())
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusFound, http.StatusSeeOther, http.StatusOK:
		return nil
	default:
		return decodeError(resp)
	}
}

// PictureURL resolves the public location of a stored picture.
func (c *Client) PictureURL(ctx context.Context, name string) (string, error) {
	return c.location(ctx, "picture_url", "/api/pictures/"+url.PathEscape(name))
}

// ThumbnailURL resolves the public location of a picture thumbnail.
func (c *Client) ThumbnailURL(ctx context.Context, name string) (string, error) {
	return c.location(ctx, "thumbnail_url", "/api/thumbnails/"+url.PathEscape(name))
}

// CollageURL resolves the current collage location, cache buster included.
func (c *Client) CollageURL(ctx context.Context) (string, error) {
	return c.location(ctx, "collage_url", "/api/collage")
}

func (c *Client) location(ctx context.Context, op, path string) (loc string, err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusTemporaryRedirect {
		return "", decodeError(resp)
	}
	l, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return l.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeError reads an {code, message} body. Bodies that are not JSON
// still yield an APIError carrying the status.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	if apiErr.Code == "" && resp.StatusCode == http.StatusTooManyRequests {
		apiErr.Code = "rate_limited"
	}
	return apiErr
}
