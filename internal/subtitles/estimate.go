package subtitles

import (
	"math"
	"strings"
	"unicode"
)

const (
	// readingRate is the assumed narration speed in characters per second.
	readingRate = 15.0
	// minCueSeconds is the shortest estimated cue.
	minCueSeconds = 1.5
)

// SplitSentences splits text after '.', '!' or '?' when followed by
// whitespace. Terminal punctuation stays with its sentence.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// Estimate times each script sentence by its length at a fixed reading
// rate, with a minimum per cue, laid out back to back from zero.
func Estimate(script string) []Segment {
	sentences := SplitSentences(script)
	segs := make([]Segment, 0, len(sentences))
	current := 0.0
	for _, s := range sentences {
		d := math.Max(minCueSeconds, float64(len([]rune(s)))/readingRate)
		segs = append(segs, Segment{Start: current, End: current + d, Text: s})
		current += d
	}
	return segs
}
