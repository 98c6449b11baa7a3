// Package imagefetch downloads remote images with a timeout, a size cap and
// content sniffing. Pair fetches the before/after images of a verification once
// so every downstream signal sees identical bytes.
package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
)

var (
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrNotAnImage  = errors.New("response is not an image")
	ErrBadResponse = errors.New("unexpected response status")
)

// Image is a downloaded image with its sniffed MIME type.
type Image struct {
	URL      string
	Data     []byte
	MimeType string
}

type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

type Option func(*Fetcher)

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads a single image. The per-call timeout is applied on top of ctx.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("%w: %d from %s", ErrBadResponse, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Image{}, ErrTooLarge
	}

	mime := SniffMIME(data)
	if mime == "" {
		return Image{}, ErrNotAnImage
	}
	return Image{URL: url, Data: data, MimeType: mime}, nil
}

// Pair downloads the before and after images concurrently. Either failure fails the pair.
func (f *Fetcher) Pair(ctx context.Context, beforeURL, afterURL string) (before, after Image, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		before, ferr = f.Fetch(gctx, beforeURL)
		return ferr
	})
	g.Go(func() error {
		var ferr error
		after, ferr = f.Fetch(gctx, afterURL)
		return ferr
	})
	if err := g.Wait(); err != nil {
		return Image{}, Image{}, err
	}
	return before, after, nil
}

// SniffMIME returns the image MIME type detected from content, or "" for non-images.
func SniffMIME(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !strings.HasPrefix(ct, "image/") {
		return ""
	}
	return ct
}
