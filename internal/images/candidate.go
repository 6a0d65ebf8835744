// Package images finds, ranks and orders the still images used as slides.
package images

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidAspectRatio is returned for ratios not in "W:H" form.
var ErrInvalidAspectRatio = errors.New("images: invalid aspect ratio")

// orientationBonus is added when an image's orientation matches the target.
const orientationBonus = 10.0

// Candidate is one image returned by a search backend.
// Candidates are immutable once fetched.
type Candidate struct {
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AspectRatio string `json:"aspect_ratio"`
	IsVertical  bool   `json:"is_vertical"`
	SearchTerm  string `json:"search_term"`
}

// NewCandidate builds a Candidate and derives its ratio and orientation.
func NewCandidate(url string, width, height int, term string) Candidate {
	return Candidate{
		URL:         url,
		Width:       width,
		Height:      height,
		AspectRatio: CalculateAspectRatio(width, height),
		IsVertical:  height > width,
		SearchTerm:  term,
	}
}

// heightRatio returns height/width, treating missing dimensions as 1.
func (c Candidate) heightRatio() float64 {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return float64(h) / float64(w)
}

// CalculateAspectRatio reduces width:height by their greatest common divisor.
// A zero dimension yields "1:1".
func CalculateAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ParseAspectRatio splits "W:H" into its positive components.
func ParseAspectRatio(ratio string) (int, int, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(ratio), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, ratio)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, ratio)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, ratio)
	}
	return width, height, nil
}

// AspectFitScore scores how well c suits a frame whose height/width is target.
// Matching orientation earns a bonus; the ratio distance is subtracted.
func AspectFitScore(c Candidate, target float64) float64 {
	score := 0.0
	switch {
	case target > 1 && c.IsVertical:
		score = orientationBonus
	case target < 1 && !c.IsVertical:
		score = orientationBonus
	}
	return score - math.Abs(c.heightRatio()-target)
}

// RankByAspectFit returns a copy of candidates sorted best match first.
// Equal scores keep their input order.
func RankByAspectFit(candidates []Candidate, targetRatio string) ([]Candidate, error) {
	w, h, err := ParseAspectRatio(targetRatio)
	if err != nil {
		return nil, err
	}
	target := float64(h) / float64(w)

	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return AspectFitScore(ranked[i], target) > AspectFitScore(ranked[j], target)
	})
	return ranked, nil
}

// URLs returns the URL of each candidate in order.
func URLs(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.URL
	}
	return out
}
