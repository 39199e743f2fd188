package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/dnscache"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/agentx-labs/pkginstall/internal/branding"
	"github.com/agentx-labs/pkginstall/internal/registry"
)

// CacheBustParam is the query parameter added to registry requests.
const CacheBustParam = "t"

// Fetcher downloads registry documents and archives.
type Fetcher struct {
	client    *http.Client
	userAgent string
	progress  io.Writer
	logger    *zap.SugaredLogger
	now       func() time.Time
	threshold int64
	breakers  *breakerSet
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithProgress renders a progress bar to w for archive downloads of known size.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l.Sugar()
	}
}

// WithClock overrides the time source used for cache busting.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// WithBreakerThreshold sets how many consecutive failures open a host's breaker.
func WithBreakerThreshold(n int) Option {
	return func(f *Fetcher) {
		f.threshold = int64(n)
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 5 * time.Minute, Transport: newTransport()},
		userAgent: branding.UserAgent(),
		logger:    zap.NewNop().Sugar(),
		now:       time.Now,
		threshold: DefaultBreakerThreshold,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.breakers = newBreakerSet(f.threshold)
	return f
}

// newTransport returns a transport whose dialer resolves hosts through a
// process-lifetime DNS cache. A run is short, so entries are never refreshed.
func newTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no addresses for %s", host)
			}
			return nil, lastErr
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// BreakerStates reports the circuit state of every host contacted so far.
func (f *Fetcher) BreakerStates() map[string]string {
	return f.breakers.States()
}

// FetchRegistry downloads and parses the registry document at rawURL. A
// cache-busting query parameter is added so intermediaries never serve a
// stale listing.
func (f *Fetcher) FetchRegistry(ctx context.Context, rawURL string) (*registry.Document, error) {
	u, err := f.parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(f.now().UnixNano(), 10))
	u.RawQuery = q.Encode()

	resp, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNetwork, u.Redacted(), err)
	}
	return registry.Parse(data)
}

// FetchArchive downloads rawURL into cacheDir under the last element of the
// URL path and returns the local path.
func (f *Fetcher) FetchArchive(ctx context.Context, rawURL, cacheDir string) (string, error) {
	u, err := f.parseURL(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: no file name in %s", ErrInvalidURL, rawURL)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	resp, err := f.get(ctx, u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(cacheDir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmp
	var bar *progressbar.ProgressBar
	if f.progress != nil {
		size := resp.ContentLength
		if size <= 0 {
			// Chunked responses get a spinner with a byte counter.
			size = -1
		}
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(f.progress),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		w = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: downloading %s: %v", ErrNetwork, u.Redacted(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing download: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(f.progress)
	}

	dest := filepath.Join(cacheDir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("finalizing download: %w", err)
	}
	f.logger.Debugw("downloaded archive", "url", u.Redacted(), "path", dest)
	return dest, nil
}

func (f *Fetcher) parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		f.logger.Warnw("fetching over plain http", "url", u.Redacted())
	default:
		return nil, fmt.Errorf("%w: %q in %s", ErrUnsupportedScheme, u.Scheme, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: no host in %s", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// get performs a GET through the host's breaker. Transport failures and 5xx
// responses count against the breaker; other statuses do not.
func (f *Fetcher) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	b := f.breakers.get(u.Host)
	if !b.Ready() {
		return nil, fmt.Errorf("%w: circuit open for %s", ErrNetwork, u.Host)
	}

	var resp *http.Response
	err := b.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "*/*")

		r, err := f.client.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 500 {
			r.Body.Close()
			return &StatusError{URL: u.Redacted(), StatusCode: r.StatusCode}
		}
		resp = r
		return nil
	}, 0)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, u.Redacted(), err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// VerifyChecksum compares the SHA-256 of the file at path with expectedHex.
func VerifyChecksum(path, expectedHex string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expectedHex)) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrChecksumMismatch, filepath.Base(path), expectedHex, actual)
	}
	return nil
}
