package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/sportsreel-api/internal/provider"
)

type fakeSearcher struct {
	name    string
	mu      sync.Mutex
	results map[string][]Candidate
	err     error
	terms   []string
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(_ context.Context, term, _ string) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terms = append(f.terms, term)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[term], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(searchers ...Searcher) *Fetcher {
	chain := provider.NewChain("image_search", quietLogger(), searchers...)
	return NewFetcher(chain, quietLogger())
}

func vertical(url string) Candidate   { return NewCandidate(url, 1080, 1920, "") }
func horizontal(url string) Candidate { return NewCandidate(url, 1920, 1080, "") }

func TestFetcher_RanksDedupesAndTrims(t *testing.T) {
	s := &fakeSearcher{name: "fake", results: map[string][]Candidate{
		"Usain Bolt portrait":         {horizontal("h1"), vertical("v1")},
		"Usain Bolt action":           {vertical("v1"), vertical("v2")},
		"Usain Bolt career highlight": {horizontal("h2")},
	}}
	f := NewFetcher(provider.NewChain[Searcher]("image_search", quietLogger(), s), quietLogger(), WithTargetImages(3))

	got, err := f.Fetch(context.Background(), "Usain Bolt", "", "9:16")

	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "h1"}, URLs(got))
	// Short of results, generic terms were tried too.
	assert.Contains(t, s.terms, "Usain Bolt photo")
}

func TestFetcher_StopsWhenEnoughCollected(t *testing.T) {
	many := make([]Candidate, 0, 20)
	for i := 0; i < 20; i++ {
		many = append(many, vertical(fmt.Sprintf("u%d", i)))
	}
	s := &fakeSearcher{name: "fake", results: map[string][]Candidate{"Usain Bolt portrait": many}}

	got, err := newTestFetcher(s).Fetch(context.Background(), "Usain Bolt", "", "9:16")

	require.NoError(t, err)
	assert.Len(t, got, DefaultTargetImages)
	assert.Equal(t, []string{"Usain Bolt portrait"}, s.terms)
}

func TestFetcher_FallsBackToSecondSearcher(t *testing.T) {
	broken := &fakeSearcher{name: "broken", err: errors.New("quota")}
	working := &fakeSearcher{name: "working", results: map[string][]Candidate{
		"Usain Bolt portrait": {vertical("v1")},
	}}

	got, err := newTestFetcher(broken, working).Fetch(context.Background(), "Usain Bolt", "", "9:16")

	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, URLs(got))
}

func TestFetcher_NoImages(t *testing.T) {
	t.Run("all searchers fail", func(t *testing.T) {
		broken := &fakeSearcher{name: "broken", err: errors.New("quota")}
		_, err := newTestFetcher(broken).Fetch(context.Background(), "Nobody", "", "9:16")

		assert.ErrorIs(t, err, ErrNoImages)
		var all *provider.AllProvidersFailedError
		assert.ErrorAs(t, err, &all)
	})

	t.Run("empty results", func(t *testing.T) {
		empty := &fakeSearcher{name: "empty"}
		_, err := newTestFetcher(empty).Fetch(context.Background(), "Nobody", "", "9:16")
		assert.ErrorIs(t, err, ErrNoImages)
	})
}

func TestFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeSearcher{name: "fake"}
	_, err := newTestFetcher(s).Fetch(ctx, "Usain Bolt", "", "9:16")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_FetchContextual(t *testing.T) {
	script := "Bolt won gold in Beijing in 2008. He ran in Berlin."
	s := &fakeSearcher{name: "fake", results: map[string][]Candidate{
		"Usain Bolt portrait":     {vertical("flat1"), vertical("flat2")},
		"Usain Bolt Beijing 2008": {vertical("beijing")},
		"Usain Bolt Berlin":       {vertical("beijing")},
		"Usain Bolt 2008":         {vertical("flat1")},
	}}

	got, err := newTestFetcher(s).FetchContextual(context.Background(), "Usain Bolt", script, "9:16")

	require.NoError(t, err)
	// Berlin only finds an image already used, so it takes the best unused flat one.
	assert.Equal(t, []string{"beijing", "flat1"}, URLs(got))
}

func TestHTTPDownloader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0"))
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, NewHTTPDownloader().Download(context.Background(), server.URL+"/a.jpg", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", Extension("https://cdn/x/photo.PNG?size=large"))
	assert.Equal(t, ".webp", Extension("https://cdn/x/photo.webp"))
	assert.Equal(t, ".jpg", Extension("https://cdn/x/photo"))
	assert.Equal(t, ".jpg", Extension("://bad"))
}
