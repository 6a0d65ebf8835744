package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maauso/sportsreel-api/internal/provider"
)

// DefaultTargetImages is the number of images kept per job.
const DefaultTargetImages = 8

// ErrNoImages is returned when no search produced a usable candidate.
var ErrNoImages = errors.New("images: no images found")

// Fetcher turns a subject and script into a ranked list of candidates.
// Each query goes through the searcher chain, so a failing backend falls
// back to the next one.
type Fetcher struct {
	chain  *provider.Chain[Searcher]
	target int
	terms  int
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTargetImages sets how many candidates Fetch returns.
func WithTargetImages(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.target = n
		}
	}
}

// WithSearchTerms sets how many script-derived queries are used.
func WithSearchTerms(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.terms = n
		}
	}
}

// NewFetcher creates a Fetcher over chain.
func NewFetcher(chain *provider.Chain[Searcher], logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		chain:  chain,
		target: DefaultTargetImages,
		terms:  DefaultSearchTerms,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// collector accumulates candidates, dropping repeated URLs.
type collector struct {
	seen map[string]struct{}
	all  []Candidate
}

func (c *collector) add(cands []Candidate) {
	for _, cand := range cands {
		if _, ok := c.seen[cand.URL]; ok {
			continue
		}
		c.seen[cand.URL] = struct{}{}
		c.all = append(c.all, cand)
	}
}

func (f *Fetcher) search(ctx context.Context, term, aspectRatio string) ([]Candidate, error) {
	return provider.Execute(ctx, f.chain, func(ctx context.Context, s Searcher) ([]Candidate, error) {
		return s.Search(ctx, term, aspectRatio)
	})
}

// Fetch searches script-derived terms until twice the target is collected,
// tops up with generic terms when short, ranks by aspect fit and returns
// the best candidates.
func (f *Fetcher) Fetch(ctx context.Context, subject, script, aspectRatio string) ([]Candidate, error) {
	col := &collector{seen: make(map[string]struct{})}
	want := 2 * f.target
	var lastErr error

	run := func(terms []string) error {
		for _, term := range terms {
			if len(col.all) >= want {
				return nil
			}
			cands, err := f.search(ctx, term, aspectRatio)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn("image search failed",
					slog.String("term", term),
					slog.String("error", err.Error()),
				)
				lastErr = err
				continue
			}
			col.add(cands)
		}
		return nil
	}

	if err := run(ExtractSearchTerms(subject, script, f.terms)); err != nil {
		return nil, err
	}
	if len(col.all) < want {
		if err := run(GenericSearchTerms(subject)); err != nil {
			return nil, err
		}
	}

	if len(col.all) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoImages, lastErr)
		}
		return nil, ErrNoImages
	}

	ranked, err := RankByAspectFit(col.all, aspectRatio)
	if err != nil {
		return nil, err
	}
	if len(ranked) > f.target {
		ranked = ranked[:f.target]
	}

	f.logger.Info("images fetched",
		slog.String("subject", subject),
		slog.Int("found", len(col.all)),
		slog.Int("kept", len(ranked)),
	)
	return ranked, nil
}

// FetchContextual picks one image per script sentence using a query built
// from that sentence's keywords. Images are never reused across segments;
// a segment whose own search yields nothing new takes the next unused
// image from the flat Fetch result.
func (f *Fetcher) FetchContextual(ctx context.Context, subject, script, aspectRatio string) ([]Candidate, error) {
	flat, err := f.Fetch(ctx, subject, script, aspectRatio)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	pick := func(cands []Candidate) (Candidate, bool) {
		for _, c := range cands {
			if _, ok := used[c.URL]; !ok {
				used[c.URL] = struct{}{}
				return c, true
			}
		}
		return Candidate{}, false
	}

	var out []Candidate
	for _, seg := range SegmentTerms(subject, script) {
		cands, err := f.search(ctx, seg.Term, aspectRatio)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			if ranked, rerr := RankByAspectFit(cands, aspectRatio); rerr == nil {
				cands = ranked
			}
			if c, ok := pick(cands); ok {
				out = append(out, c)
				continue
			}
		}
		if c, ok := pick(flat); ok {
			out = append(out, c)
		}
	}

	if len(out) == 0 {
		return flat, nil
	}
	return out, nil
}
