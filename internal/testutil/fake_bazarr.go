package testutil

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

// TestAPIKey is the key FakeBazarr expects unless overridden.
const TestAPIKey = "test-api-key"

// RecordedRequest is one request received by FakeBazarr.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// RecordedAction is one subtitle mutation received by FakeBazarr.
type RecordedAction struct {
	Action  string
	Request models.ActionRequest
	Raw     string
}

// FakeBazarr is an in-process stand-in for the remote subtitle service API.
// Fields may be modified between runs; all access is guarded by the server's mutex.
type FakeBazarr struct {
	Server *httptest.Server

	mu       sync.Mutex
	apiKey   string
	version  string
	movies   []models.Movie
	series   []models.Show
	episodes map[int][]models.Episode

	statusCode   int
	listStatus   map[string]int
	actionStatus func(action string, req models.ActionRequest) int

	requests []RecordedRequest
	actions  []RecordedAction
}

// NewFakeBazarr starts a fake API server that is closed when the test ends.
func NewFakeBazarr(t testing.TB) *FakeBazarr {
	t.Helper()
	f := &FakeBazarr{
		apiKey:     TestAPIKey,
		version:    "1.4.3",
		episodes:   make(map[int][]models.Episode),
		listStatus: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns a configuration pointing at the fake server with fast retries.
func (f *FakeBazarr) Config() *config.Config {
	u, _ := url.Parse(f.Server.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)

	cfg := &config.Config{
		Protocol:      "http",
		Host:          host,
		Port:          port,
		APIKey:        f.apiKey,
		ClientTimeout: "5s",
		UserAgent:     "bb-test",
	}
	cfg.Retry.MaxRetries = 2
	cfg.Retry.Interval = "1ms"
	cfg.Retry.MaxInterval = "5ms"
	cfg.Store.Provider = "sqlite"
	cfg.Cache.Provider = "none"
	return cfg
}

// SetMovies replaces the movie inventory.
func (f *FakeBazarr) SetMovies(movies ...models.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = movies
}

// SetSeries replaces the series inventory.
func (f *FakeBazarr) SetSeries(series ...models.Show) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series = series
}

// SetEpisodes replaces the episodes of one series.
func (f *FakeBazarr) SetEpisodes(seriesID int, episodes ...models.Episode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodes[seriesID] = episodes
}

// SetVersion sets the version reported by the status endpoint. Empty omits the field.
func (f *FakeBazarr) SetVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// SetStatusCode forces the status endpoint to answer with code. Zero restores normal behaviour.
func (f *FakeBazarr) SetStatusCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCode = code
}

// SetListStatus forces a list endpoint ("movies", "series", "episodes") to answer with code.
func (f *FakeBazarr) SetListStatus(endpoint string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStatus[endpoint] = code
}

// SetActionStatus decides the status of each subtitle mutation. Nil answers 204.
func (f *FakeBazarr) SetActionStatus(fn func(action string, req models.ActionRequest) int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionStatus = fn
}

// Requests returns a copy of every request received so far.
func (f *FakeBazarr) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsTo returns the requests received for one API path, e.g. "/api/movies".
func (f *FakeBazarr) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Actions returns a copy of every subtitle mutation received so far, including failed ones.
func (f *FakeBazarr) Actions() []RecordedAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedAction(nil), f.actions...)
}

func (f *FakeBazarr) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})

	if r.Header.Get("X-API-KEY") != f.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/system/status":
		if f.statusCode != 0 {
			w.WriteHeader(f.statusCode)
			return
		}
		data := map[string]string{}
		if f.version != "" {
			data["bazarr_version"] = f.version
		}
		writeJSON(w, map[string]any{"data": data})

	case r.Method == http.MethodGet && r.URL.Path == "/api/movies":
		if code := f.listStatus["movies"]; code != 0 {
			w.WriteHeader(code)
			return
		}
		movies := selectByID(f.movies, r.URL.Query()["radarrid[]"], func(m models.Movie) int { return m.RadarrID })
		writeJSON(w, models.ListResponse[models.Movie]{Data: paginate(movies, r.URL.Query()), Total: len(f.movies)})

	case r.Method == http.MethodGet && r.URL.Path == "/api/series":
		if code := f.listStatus["series"]; code != 0 {
			w.WriteHeader(code)
			return
		}
		series := selectByID(f.series, r.URL.Query()["seriesid[]"], func(s models.Show) int { return s.SonarrSeriesID })
		writeJSON(w, models.ListResponse[models.Show]{Data: paginate(series, r.URL.Query()), Total: len(f.series)})

	case r.Method == http.MethodGet && r.URL.Path == "/api/episodes":
		if code := f.listStatus["episodes"]; code != 0 {
			w.WriteHeader(code)
			return
		}
		var episodes []models.Episode
		for _, raw := range r.URL.Query()["seriesid[]"] {
			id, _ := strconv.Atoi(raw)
			episodes = append(episodes, f.episodes[id]...)
		}
		writeJSON(w, models.ListResponse[models.Episode]{Data: episodes, Total: len(episodes)})

	case r.Method == http.MethodPatch && r.URL.Path == "/api/subtitles":
		body, _ := io.ReadAll(r.Body)
		var req models.ActionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		action := r.URL.Query().Get("action")
		if kind, err := models.ParseActionKind(action); err == nil {
			req.Action = kind
		}
		f.actions = append(f.actions, RecordedAction{Action: action, Request: req, Raw: string(body)})

		code := http.StatusNoContent
		if f.actionStatus != nil {
			code = f.actionStatus(action, req)
		}
		w.WriteHeader(code)
		if code >= 300 {
			_, _ = w.Write([]byte(`{"message":"action failed"}`))
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func selectByID[T any](items []T, rawIDs []string, id func(T) int) []T {
	if len(rawIDs) == 0 {
		return items
	}
	wanted := make(map[int]bool, len(rawIDs))
	for _, raw := range rawIDs {
		if v, err := strconv.Atoi(raw); err == nil {
			wanted[v] = true
		}
	}
	var out []T
	for _, item := range items {
		if wanted[id(item)] {
			out = append(out, item)
		}
	}
	return out
}

func paginate[T any](items []T, query url.Values) []T {
	start, _ := strconv.Atoi(query.Get("start"))
	if start >= len(items) {
		return []T{}
	}
	items = items[start:]
	if raw := query.Get("length"); raw != "" {
		if length, err := strconv.Atoi(raw); err == nil && length >= 0 && length < len(items) {
			items = items[:length]
		}
	}
	return items
}
