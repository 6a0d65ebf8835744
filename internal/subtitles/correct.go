package subtitles

import "strings"

// matchThreshold is the minimum similarity for replacing transcribed text.
const matchThreshold = 0.3

// Similarity is the Jaccard index of the lower-cased word sets of a and b.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// MatchScript returns the script sentence, or pair of consecutive
// sentences, most similar to text. When nothing scores above the
// threshold, text is returned unchanged.
func MatchScript(text string, sentences []string) string {
	best := ""
	bestScore := -1.0
	consider := func(candidate string) {
		if s := Similarity(text, candidate); s > bestScore {
			best, bestScore = candidate, s
		}
	}

	for _, s := range sentences {
		consider(s)
	}
	for i := 0; i+1 < len(sentences); i++ {
		consider(sentences[i] + " " + sentences[i+1])
	}

	if bestScore > matchThreshold {
		return best
	}
	return text
}

// Correct replaces transcribed text with the matching script wording so
// names and numbers are spelled as written. Timing is kept.
func Correct(segs []Segment, script string) []Segment {
	sentences := SplitSentences(script)
	if len(sentences) == 0 {
		return segs
	}
	out := make([]Segment, len(segs))
	for i, seg := range segs {
		seg.Text = MatchScript(strings.TrimSpace(seg.Text), sentences)
		out[i] = seg
	}
	return out
}
