package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/xerrors"
	yaml "gopkg.in/yaml.v2"
	"k8s.io/utils/clock"

	"github.com/AlexTiTanium/worm-scan/pkg/log"
)

const defaultTTL = time.Hour

var logger = log.WithPrefix("feed")

// Client retrieves the advisory feed from an HTTPS URL or a local file and
// hands back the decoded document. URL fetches go through an on-disk cache
// with a clock-driven expiry so repeated scans don't hammer the feed host.
type Client struct {
	httpClient *http.Client
	cache      *Cache
	ttl        time.Duration
	clock      clock.Clock
	skipCache  bool
	quiet      bool
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithCache(cache *Cache) Option {
	return func(client *Client) {
		client.cache = cache
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(client *Client) {
		client.ttl = ttl
	}
}

func WithClock(c clock.Clock) Option {
	return func(client *Client) {
		client.clock = c
	}
}

func SkipCache() Option {
	return func(client *Client) {
		client.skipCache = true
	}
}

func Quiet() Option {
	return func(client *Client) {
		client.quiet = true
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ttl:        defaultTTL,
		clock:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch returns the decoded advisory feed from src, which is either an
// http(s) URL or a local file path. The document is decoded as JSON first
// and as YAML when that fails.
func (c *Client) Fetch(ctx context.Context, src string) (any, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return c.fetchURL(ctx, src)
	}
	return c.fetchFile(src)
}

func (c *Client) fetchFile(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read feed file: %w", err)
	}
	v, err := decodeFeed(b)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode feed file %s: %w", path, err)
	}
	return v, nil
}

func (c *Client) fetchURL(ctx context.Context, url string) (any, error) {
	if c.cache != nil && !c.skipCache {
		if body, ok := c.cache.Get(url, c.clock.Now(), c.ttl); ok {
			logger.Debug("advisory feed served from cache", log.String("url", url))
			if v, err := decodeFeed(body); err == nil {
				return v, nil
			}
			// A corrupt cache entry falls through to a fresh fetch.
		}
	}

	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(url, body, c.clock.Now()); err != nil {
			logger.Warn("failed to cache advisory feed", log.Err(err))
		}
	}

	v, err := decodeFeed(body)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode feed from %s: %w", url, err)
	}
	return v, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	if !c.quiet {
		s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
		s.Suffix = " Fetching advisory feed..."
		s.Start()
		defer s.Stop()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch advisory feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("advisory feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to read feed body: %w", err)
	}
	return body, nil
}

func decodeFeed(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err == nil {
		return v, nil
	}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, xerrors.Errorf("feed is neither JSON nor YAML: %w", err)
	}
	return stringifyKeys(v), nil
}

// stringifyKeys rewrites yaml.v2's map[interface{}]interface{} values into
// map[string]any so the normalizer sees one decoded shape.
func stringifyKeys(v any) any {
	switch vv := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]any, len(vv))
		for k, val := range vv {
			if ks, ok := k.(string); ok {
				m[ks] = stringifyKeys(val)
			}
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(vv))
		for k, val := range vv {
			m[k] = stringifyKeys(val)
		}
		return m
	case []any:
		for i, elem := range vv {
			vv[i] = stringifyKeys(elem)
		}
		return vv
	}
	return v
}
