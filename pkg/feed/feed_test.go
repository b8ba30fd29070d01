package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fake "k8s.io/utils/clock/testing"

	"github.com/AlexTiTanium/worm-scan/pkg/advisory"
	"github.com/AlexTiTanium/worm-scan/pkg/dbtest"
	"github.com/AlexTiTanium/worm-scan/pkg/ecosystem"
	"github.com/AlexTiTanium/worm-scan/pkg/feed"
)

func TestClient_Fetch_File(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    map[string][]string
		wantErr string
	}{
		{
			name: "json feed",
			path: filepath.Join("testdata", "feed.json"),
			want: map[string][]string{"evil": {"1.2.3"}},
		},
		{
			name: "yaml feed",
			path: filepath.Join("testdata", "feed.yaml"),
			want: map[string][]string{"evil": {"1.2.3", "1.2.4"}},
		},
		{
			name:    "missing file",
			path:    filepath.Join("testdata", "nope.json"),
			wantErr: "failed to read feed file",
		},
		{
			name:    "undecodable file",
			path:    filepath.Join("testdata", "broken.txt"),
			wantErr: "failed to decode feed file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := feed.NewClient(feed.Quiet())
			got, err := client.Fetch(context.Background(), tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assertFeed(t, tt.want, got)
		})
	}
}

func TestClient_Fetch_URL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"evil": ["1.2.3"]}`))
	}))
	defer ts.Close()

	client := feed.NewClient(feed.Quiet())
	got, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assertFeed(t, map[string][]string{"evil": {"1.2.3"}}, got)
}

func TestClient_Fetch_URLError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := feed.NewClient(feed.Quiet())
	_, err := client.Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Fetch_CacheHit(t *testing.T) {
	// The fixture entry was fetched at 11:30; at 12:00 it is still fresh,
	// so the unreachable URL must never be contacted.
	cacheDir := dbtest.InitCacheDir(t, []string{filepath.Join("testdata", "cache.yaml")})
	cache, err := feed.OpenCache(cacheDir)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	client := feed.NewClient(
		feed.Quiet(),
		feed.WithCache(cache),
		feed.WithClock(fake.NewFakeClock(now)),
	)

	got, err := client.Fetch(context.Background(), "http://127.0.0.1:1/malicious.json")
	require.NoError(t, err)
	assertFeed(t, map[string][]string{"evil": {"1.2.3"}}, got)
}

func TestClient_Fetch_CacheExpiry(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"evil": ["1.2.3"]}`))
	}))
	defer ts.Close()

	cache, err := feed.OpenCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	clk := fake.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	client := feed.NewClient(
		feed.Quiet(),
		feed.WithCache(cache),
		feed.WithClock(clk),
		feed.WithTTL(time.Hour),
	)

	ctx := context.Background()
	_, err = client.Fetch(ctx, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// Still fresh: served from cache.
	clk.Step(30 * time.Minute)
	_, err = client.Fetch(ctx, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// Past the TTL: fetched again.
	clk.Step(time.Hour)
	_, err = client.Fetch(ctx, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestClient_Fetch_SkipCache(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"evil": ["1.2.3"]}`))
	}))
	defer ts.Close()

	cache, err := feed.OpenCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	client := feed.NewClient(feed.Quiet(), feed.WithCache(cache), feed.SkipCache())

	ctx := context.Background()
	_, err = client.Fetch(ctx, ts.URL)
	require.NoError(t, err)
	_, err = client.Fetch(ctx, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestCache_RoundTrip(t *testing.T) {
	cache, err := feed.OpenCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Put("https://example.com/feed", []byte(`{"a":1}`), now))

	body, ok := cache.Get("https://example.com/feed", now.Add(time.Minute), time.Hour)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), body)

	_, ok = cache.Get("https://example.com/feed", now.Add(2*time.Hour), time.Hour)
	assert.False(t, ok)

	_, ok = cache.Get("https://example.com/unknown", now, time.Hour)
	assert.False(t, ok)
}

func assertFeed(t *testing.T, want map[string][]string, got any) {
	t.Helper()
	m := advisory.Normalize(got, ecosystem.Npm)
	require.Len(t, m, len(want))
	for name, versions := range want {
		s, ok := m.Versions(name)
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, versions, s.Values())
	}
}
