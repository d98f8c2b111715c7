package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/cache"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/metrics"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/testutil"
)

func newTestClient(t *testing.T, cfg *config.Config, opts ...Option) Client {
	t.Helper()
	c, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// serverConfig points a config at an arbitrary httptest server.
func serverConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	cfg := &config.Config{
		Protocol:      "http",
		Host:          u.Hostname(),
		APIKey:        "key",
		ClientTimeout: "2s",
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	cfg.Port = port
	cfg.Retry.MaxRetries = 2
	cfg.Retry.Interval = "1ms"
	cfg.Retry.MaxInterval = "5ms"
	return cfg
}

func TestListQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   url.Values
	}{
		{
			name:   "no filter fetches everything",
			filter: models.Filter{},
			want:   url.Values{},
		},
		{
			name:   "ids only",
			filter: models.Filter{IDs: []int{3, 1}},
			want:   url.Values{"radarrid[]": {"3", "1"}},
		},
		{
			name:   "ids win over offset and limit",
			filter: models.Filter{IDs: []int{7}, Offset: 10, Limit: testutil.IntPtr(5)},
			want:   url.Values{"radarrid[]": {"7"}},
		},
		{
			name:   "limit and offset",
			filter: models.Filter{Offset: 10, Limit: testutil.IntPtr(5)},
			want:   url.Values{"start": {"10"}, "length": {"5"}},
		},
		{
			name:   "offset without limit is unbounded",
			filter: models.Filter{Offset: 4},
			want:   url.Values{"start": {"4"}, "length": {"-1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ListQuery("radarrid[]", tt.filter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_ListMovies_IDSetPrecedence(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetMovies(
		testutil.Movie(1, "One", testutil.Sub("/1.en.srt", "en")),
		testutil.Movie(2, "Two"),
		testutil.Movie(3, "Three"),
	)
	c := newTestClient(t, fake.Config())

	movies, err := c.ListMovies(context.Background(), models.Filter{IDs: []int{1, 3}, Offset: 1, Limit: testutil.IntPtr(1)})
	if err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if len(movies) != 2 || movies[0].RadarrID != 1 || movies[1].RadarrID != 3 {
		t.Fatalf("ListMovies() = %+v, want movies 1 and 3", movies)
	}
	if movies[0].Subtitles[0].FilePath() != "/1.en.srt" {
		t.Errorf("expected subtitles to be decoded, got %+v", movies[0].Subtitles)
	}

	reqs := fake.RequestsTo("/api/movies")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 movies request, got %d", len(reqs))
	}
	q := reqs[0].Query
	if q.Has("length") || q.Has("start") {
		t.Errorf("pagination must not be sent with an ID set, got %v", q)
	}
	if got := q["radarrid[]"]; !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("radarrid[] = %v", got)
	}
	if reqs[0].Header.Get("X-API-KEY") != testutil.TestAPIKey {
		t.Error("expected API key header on every request")
	}
}

func TestClient_ListMovies_Pagination(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetMovies(testutil.Movie(1, "One"), testutil.Movie(2, "Two"), testutil.Movie(3, "Three"))
	c := newTestClient(t, fake.Config())

	movies, err := c.ListMovies(context.Background(), models.Filter{Offset: 1, Limit: testutil.IntPtr(1)})
	if err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if len(movies) != 1 || movies[0].RadarrID != 2 {
		t.Errorf("ListMovies() = %+v, want only movie 2", movies)
	}
}

func TestClient_ListSeriesAndEpisodes(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetSeries(testutil.Show(10, "Show A"), testutil.Show(20, "Show B"))
	fake.SetEpisodes(10, testutil.Episode(101, 10, 1, 1, "Pilot", testutil.Sub("/a.srt", "en")))
	c := newTestClient(t, fake.Config())
	ctx := context.Background()

	series, err := c.ListSeries(ctx, models.Filter{IDs: []int{10}})
	if err != nil {
		t.Fatalf("ListSeries() unexpected error: %v", err)
	}
	if len(series) != 1 || series[0].Title != "Show A" {
		t.Fatalf("ListSeries() = %+v", series)
	}
	if got := fake.RequestsTo("/api/series")[0].Query["seriesid[]"]; !reflect.DeepEqual(got, []string{"10"}) {
		t.Errorf("seriesid[] = %v", got)
	}

	episodes, err := c.ListEpisodes(ctx, 10)
	if err != nil {
		t.Fatalf("ListEpisodes() unexpected error: %v", err)
	}
	if len(episodes) != 1 || episodes[0].SonarrEpisodeID != 101 {
		t.Errorf("ListEpisodes() = %+v", episodes)
	}

	empty, err := c.ListEpisodes(ctx, 20)
	if err != nil {
		t.Fatalf("ListEpisodes() unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no episodes, got %d", len(empty))
	}
}

func TestClient_ListMovies_ServerError(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetListStatus("movies", http.StatusInternalServerError)
	c := newTestClient(t, fake.Config())

	_, err := c.ListMovies(context.Background(), models.Filter{})
	var statusErr *apperrors.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if got := len(fake.RequestsTo("/api/movies")); got != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d requests", got)
	}
	if apperrors.IsFatal(err) {
		t.Error("a 5xx after retries must not be fatal")
	}
}

func openDiskCache(t *testing.T, dir string) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Options{Provider: cache.ProviderDisk, Dir: dir, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.New() unexpected error: %v", err)
	}
	return c
}

func TestClient_ListMovies_CacheSurvivesRuns(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetMovies(testutil.Movie(1, "One"))
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewClient(fake.Config(), WithCache(openDiskCache(t, dir)))
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	if _, err := first.ListMovies(ctx, models.Filter{}); err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	hitsBefore := promtest.ToFloat64(metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheHit))
	second := newTestClient(t, fake.Config(), WithCache(openDiskCache(t, dir)))
	movies, err := second.ListMovies(ctx, models.Filter{})
	if err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "One" {
		t.Fatalf("unexpected cached movies %+v", movies)
	}
	if got := len(fake.RequestsTo("/api/movies")); got != 1 {
		t.Errorf("expected the second run to be served from cache, got %d requests", got)
	}
	if got := promtest.ToFloat64(metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheHit)); got != hitsBefore+1 {
		t.Errorf("cache hits = %v, want %v", got, hitsBefore+1)
	}
}

func TestClient_ListMovies_StaleCacheEntryRefetched(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	fake.SetMovies(testutil.Movie(1, "One"))
	cached := openDiskCache(t, t.TempDir())
	c := newTestClient(t, fake.Config(), WithCache(cached))
	ctx := context.Background()

	if _, err := c.ListMovies(ctx, models.Filter{}); err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if got := len(fake.RequestsTo("/api/movies")); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}

	// Corrupt the cached body under the same key.
	key := c.(*client).endpoint(moviesEndpoint, ListQuery("radarrid[]", models.Filter{}))
	cached.Set(ctx, key, []byte("not json"))

	staleBefore := promtest.ToFloat64(metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheStale))
	movies, err := c.ListMovies(ctx, models.Filter{})
	if err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(movies))
	}
	if got := len(fake.RequestsTo("/api/movies")); got != 2 {
		t.Errorf("expected a refetch after a stale entry, got %d requests", got)
	}
	if got := promtest.ToFloat64(metrics.InventoryCacheTotal.WithLabelValues(metrics.CacheStale)); got != staleBefore+1 {
		t.Errorf("stale count = %v, want %v", got, staleBefore+1)
	}
}

func TestNewClient_RejectsBadProxy(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	for _, proxy := range []string{"ftp://proxy.local:21", "socks4://proxy.local:1080"} {
		cfg := fake.Config()
		cfg.ProxyConnectionString = proxy
		_, err := NewClient(cfg)
		if !errors.Is(err, apperrors.ErrInvalidConfig) {
			t.Errorf("NewClient(proxy=%q) error = %v, want ErrInvalidConfig", proxy, err)
		}
	}
}

func TestClient_CheckHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		fake := testutil.NewFakeBazarr(t)
		status, err := newTestClient(t, fake.Config()).CheckHealth(context.Background())
		if err != nil {
			t.Fatalf("CheckHealth() unexpected error: %v", err)
		}
		if status.Version != "1.4.3" {
			t.Errorf("Version = %q", status.Version)
		}
	})

	t.Run("unrecognised payload", func(t *testing.T) {
		fake := testutil.NewFakeBazarr(t)
		fake.SetVersion("")
		status, err := newTestClient(t, fake.Config()).CheckHealth(context.Background())
		if err != nil {
			t.Fatalf("CheckHealth() unexpected error: %v", err)
		}
		if status.Version != "" {
			t.Errorf("Version = %q, want empty", status.Version)
		}
	})

	t.Run("bad api key", func(t *testing.T) {
		fake := testutil.NewFakeBazarr(t)
		cfg := fake.Config()
		cfg.APIKey = "wrong"
		_, err := newTestClient(t, cfg).CheckHealth(context.Background())
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if !apperrors.IsFatal(err) {
			t.Error("unauthorized must be fatal")
		}
	})

	t.Run("other status warns", func(t *testing.T) {
		fake := testutil.NewFakeBazarr(t)
		fake.SetStatusCode(http.StatusForbidden)
		_, err := newTestClient(t, fake.Config()).CheckHealth(context.Background())
		var statusErr *apperrors.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 StatusError, got %v", err)
		}
		if apperrors.IsFatal(err) {
			t.Error("non-401 status must not be fatal")
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		cfg := serverConfig(t, server.URL)
		server.Close()

		_, err := newTestClient(t, cfg).CheckHealth(context.Background())
		var connErr *apperrors.ConnectionError
		if !errors.As(err, &connErr) {
			t.Fatalf("expected *ConnectionError, got %v", err)
		}
		if !apperrors.IsFatal(err) {
			t.Error("connection failure must be fatal")
		}
	})
}

func TestClient_ApplyAction(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	c := newTestClient(t, fake.Config())

	rec := models.Record{Kind: models.KindMovie, ID: 42, Title: "Movie"}
	req := models.NewActionRequest(rec, testutil.Sub("/x.srt", "en"), models.NewAction(models.ActionRemoveHearingImpaired))
	if err := c.ApplyAction(context.Background(), req); err != nil {
		t.Fatalf("ApplyAction() unexpected error: %v", err)
	}

	actions := fake.Actions()
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].Action != "remove_HI" {
		t.Errorf("action = %q, want remove_HI", actions[0].Action)
	}
	want := `{"id":42,"type":"movie","language":"en","path":"/x.srt"}`
	if strings.TrimSpace(actions[0].Raw) != want {
		t.Errorf("body = %s, want %s", actions[0].Raw, want)
	}
	patch := fake.RequestsTo("/api/subtitles")[0]
	if patch.Method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", patch.Method)
	}
}

func TestClient_ApplyAction_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantAttempts int
	}{
		{"client error is not retried", http.StatusNotFound, 1},
		{"server error is retried", http.StatusInternalServerError, 3},
		{"rate limit is retried", http.StatusTooManyRequests, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeBazarr(t)
			fake.SetActionStatus(func(string, models.ActionRequest) int { return tt.status })
			c := newTestClient(t, fake.Config())

			req := models.NewActionRequest(models.Record{Kind: models.KindEpisode, ID: 7}, testutil.Sub("/e.srt", "fr"), models.NewAction(models.ActionSync))
			err := c.ApplyAction(context.Background(), req)

			var statusErr *apperrors.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if !strings.Contains(statusErr.Body, "action failed") {
				t.Errorf("expected body to be carried, got %q", statusErr.Body)
			}
			if got := len(fake.Actions()); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestClient_RetryRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"radarrId":5,"title":"Late"}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, serverConfig(t, server.URL))
	movies, err := c.ListMovies(context.Background(), models.Filter{})
	if err != nil {
		t.Fatalf("ListMovies() unexpected error: %v", err)
	}
	if len(movies) != 1 || movies[0].RadarrID != 5 {
		t.Errorf("ListMovies() = %+v", movies)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_ConnectionRefusedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := serverConfig(t, server.URL)
	server.Close()

	c := newTestClient(t, cfg)
	req := models.NewActionRequest(models.Record{Kind: models.KindMovie, ID: 1}, testutil.Sub("/a.srt", "en"), models.NewAction(models.ActionCommonFixes))
	err := c.ApplyAction(context.Background(), req)

	var connErr *apperrors.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
	if !apperrors.IsFatal(err) {
		t.Error("connection failure must be fatal")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	fake := testutil.NewFakeBazarr(t)
	c := newTestClient(t, fake.Config())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListMovies(ctx, models.Filter{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewClient_BaseURL(t *testing.T) {
	cfg := &config.Config{Protocol: "http", Host: "bazarr.local", Port: 6767, BaseURL: "/bazarr/", APIKey: "k"}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	defer c.Close()

	impl := c.(*client)
	got := impl.endpoint("movies", url.Values{"radarrid[]": {"1"}})
	want := "http://bazarr.local:6767/bazarr/api/movies?radarrid%5B%5D=1"
	if got != want {
		t.Errorf("endpoint() = %q, want %q", got, want)
	}
}
