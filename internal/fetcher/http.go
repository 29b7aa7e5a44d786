package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultMinDelay is slept before every request, success or failure.
	DefaultMinDelay = 500 * time.Millisecond
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the project to upstream archives.
	DefaultUserAgent = "Windwalker/0.1.0 (Native Treaty Mapping Initiative)"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	MinDelay  time.Duration
	// InsecureSkipVerify disables TLS certificate checks. Only the CONTENTdm
	// archive client sets this; its certificate chain does not validate.
	InsecureSkipVerify bool
}

// HTTPFetcher implements JSONFetcher with a fixed pre-request delay and no
// retries. It is meant to be used from a single goroutine.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinDelay < 0 {
		opts.MinDelay = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:  opts,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchJSON sleeps the minimum delay, GETs the URL and decodes the body.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, rawURL string) (any, error) {
	log := zap.L().With(zap.String("component", "fetcher"), zap.String("url", rawURL))

	if err := f.sleep(ctx, f.opts.MinDelay); err != nil {
		return nil, f.fail(log, &FetchError{URL: rawURL, Kind: KindTransport, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, f.fail(log, &FetchError{URL: rawURL, Kind: KindTransport, Err: eris.Wrap(err, "create request")})
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.fail(log, &FetchError{URL: rawURL, Kind: KindTransport, Err: err})
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, f.fail(log, &FetchError{URL: rawURL, Kind: KindStatus, Status: resp.StatusCode})
	}

	doc, err := DecodeJSON(resp.Body)
	if err != nil {
		return nil, f.fail(log, &FetchError{URL: rawURL, Kind: KindDecode, Status: resp.StatusCode, Err: err})
	}

	return doc, nil
}

func (f *HTTPFetcher) fail(log *zap.Logger, fe *FetchError) error {
	log.Warn("fetch failed",
		zap.String("kind", string(fe.Kind)),
		zap.Int("status", fe.Status),
		zap.Error(fe.Err),
	)
	return fe
}
