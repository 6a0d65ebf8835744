package subtitles

import (
	"strings"
	"unicode"

	"github.com/maauso/sportsreel-api/internal/narration"
)

// maxWordsPerCue caps cue length so captions stay readable on a phone.
const maxWordsPerCue = 7

type word struct {
	text       string
	start, end float64
}

// words groups aligned characters into whitespace separated words.
func words(a *narration.Alignment) []word {
	var (
		out []word
		cur *word
	)
	for i, ch := range a.Characters {
		if strings.TrimSpace(ch) == "" {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = &word{start: a.StartTimes[i]}
		}
		cur.text += ch
		cur.end = a.EndTimes[i]
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func endsSentence(w string) bool {
	w = strings.TrimRightFunc(w, func(r rune) bool { return r == '"' || r == '\'' || r == ')' || unicode.IsSpace(r) })
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}

// FromAlignment builds cues of at most seven words from character timing,
// breaking early at sentence punctuation. It returns nil for invalid input.
func FromAlignment(a *narration.Alignment) []Segment {
	if !a.Valid() {
		return nil
	}

	var (
		segs  []Segment
		batch []word
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		texts := make([]string, len(batch))
		for i, w := range batch {
			texts[i] = w.text
		}
		segs = append(segs, Segment{
			Start: batch[0].start,
			End:   batch[len(batch)-1].end,
			Text:  strings.Join(texts, " "),
		})
		batch = nil
	}

	for _, w := range words(a) {
		batch = append(batch, w)
		if len(batch) >= maxWordsPerCue || endsSentence(w.text) {
			flush()
		}
	}
	flush()
	return segs
}
