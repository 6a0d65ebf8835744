package images

import (
	"context"
	"net/url"
	"strconv"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Provider names.
const (
	ProviderSerpAPI = "serpapi"
	ProviderBrave   = "brave"
)

// Default endpoints.
const (
	SerpAPIBaseURL = "https://serpapi.com"
	BraveBaseURL   = "https://api.search.brave.com/res/v1"
)

const (
	// minSerpDimension drops thumbnails and icons from SerpAPI results.
	minSerpDimension = 400
	// braveDefaultDimension is assigned because Brave reports no sizes.
	braveDefaultDimension = 600
)

// Searcher finds image candidates for a query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, term, aspectRatio string) ([]Candidate, error)
}

// Compile-time checks.
var (
	_ Searcher = (*SerpAPISearcher)(nil)
	_ Searcher = (*BraveSearcher)(nil)
)

// SerpAPISearcher queries Google Images through SerpAPI.
type SerpAPISearcher struct {
	client *apiclient.Client
	apiKey string
}

// NewSerpAPISearcher creates a SerpAPI backend. baseURL may be empty.
func NewSerpAPISearcher(apiKey, baseURL string, opts ...apiclient.Option) (*SerpAPISearcher, error) {
	if baseURL == "" {
		baseURL = SerpAPIBaseURL
	}
	client, err := apiclient.New(ProviderSerpAPI, baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &SerpAPISearcher{client: client, apiKey: apiKey}, nil
}

// Name returns the backend name.
func (s *SerpAPISearcher) Name() string {
	return ProviderSerpAPI
}

type serpResponse struct {
	ImagesResults []struct {
		Original       string `json:"original"`
		OriginalWidth  int    `json:"original_width"`
		OriginalHeight int    `json:"original_height"`
	} `json:"images_results"`
}

// Search returns images of at least 400x400. Portrait frames bias the
// query towards vertical pictures.
func (s *SerpAPISearcher) Search(ctx context.Context, term, aspectRatio string) ([]Candidate, error) {
	q := term
	if aspectRatio == "9:16" {
		q = term + " vertical portrait"
	}
	params := url.Values{
		"engine":  {"google_images"},
		"q":       {q},
		"api_key": {s.apiKey},
		"tbm":     {"isch"},
		"ijn":     {"0"},
		"safe":    {"active"},
	}

	var resp serpResponse
	if err := s.client.GetJSON(ctx, "/search.json", params, &resp); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.ImagesResults))
	for _, img := range resp.ImagesResults {
		if img.Original == "" || img.OriginalWidth < minSerpDimension || img.OriginalHeight < minSerpDimension {
			continue
		}
		out = append(out, NewCandidate(img.Original, img.OriginalWidth, img.OriginalHeight, term))
	}
	return out, nil
}

// BraveSearcher queries the Brave image search API.
type BraveSearcher struct {
	client *apiclient.Client
	count  int
}

// NewBraveSearcher creates a Brave backend. baseURL may be empty.
func NewBraveSearcher(apiKey, baseURL string, opts ...apiclient.Option) (*BraveSearcher, error) {
	if baseURL == "" {
		baseURL = BraveBaseURL
	}
	opts = append([]apiclient.Option{
		apiclient.WithHeader("X-Subscription-Token", apiKey),
		apiclient.WithHeader("Accept", "application/json"),
	}, opts...)
	client, err := apiclient.New(ProviderBrave, baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &BraveSearcher{client: client, count: 20}, nil
}

// Name returns the backend name.
func (b *BraveSearcher) Name() string {
	return ProviderBrave
}

type braveResponse struct {
	Results []struct {
		Properties struct {
			URL string `json:"url"`
		} `json:"properties"`
	} `json:"results"`
}

// Search returns Brave results with a default 600x600 size.
func (b *BraveSearcher) Search(ctx context.Context, term, _ string) ([]Candidate, error) {
	params := url.Values{
		"q":           {term},
		"count":       {strconv.Itoa(b.count)},
		"safesearch":  {"strict"},
		"search_lang": {"en"},
		"spellcheck":  {"1"},
	}

	var resp braveResponse
	if err := b.client.GetJSON(ctx, "/images/search", params, &resp); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Properties.URL == "" {
			continue
		}
		out = append(out, NewCandidate(r.Properties.URL, braveDefaultDimension, braveDefaultDimension, term))
	}
	return out, nil
}
