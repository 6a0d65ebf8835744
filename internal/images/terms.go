package images

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultSearchTerms is the number of terms derived from a script.
const DefaultSearchTerms = 5

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	yearRe          = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	achievementKeywords = []string{"won", "champion", "record", "medal", "trophy", "award", "victory"}
)

// Sentences splits text on terminal punctuation and drops empty pieces.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractSearchTerms derives up to n image queries for subject from script:
// a portrait, one query per sentence mentioning a year, one per sentence
// mentioning an achievement keyword, then generic action and career terms.
func ExtractSearchTerms(subject, script string, n int) []string {
	if n <= 0 {
		n = DefaultSearchTerms
	}

	terms := []string{subject + " portrait"}
	for _, sentence := range Sentences(script) {
		if year := yearRe.FindString(sentence); year != "" {
			terms = append(terms, subject+" "+year)
		}
		lower := strings.ToLower(sentence)
		for _, kw := range achievementKeywords {
			if strings.Contains(lower, kw) {
				terms = append(terms, subject+" "+kw)
				break
			}
		}
	}
	terms = append(terms, subject+" action", subject+" career highlight")

	terms = Unique(terms)
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// GenericSearchTerms are used to top up results when script terms come up short.
func GenericSearchTerms(subject string) []string {
	return []string{subject, subject + " photo"}
}

// Segment is one script sentence with the image query derived from it.
type Segment struct {
	Text string
	Term string
}

// SegmentTerms splits script into sentences and builds one query per
// sentence from its years and capitalised words, excluding words that are
// part of the subject name and the sentence's first word. Sentences with
// no such keywords fall back to the subject name alone.
func SegmentTerms(subject, script string) []Segment {
	nameWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(subject)) {
		nameWords[w] = struct{}{}
	}

	sentences := Sentences(script)
	segments := make([]Segment, 0, len(sentences))
	for _, sentence := range sentences {
		var keywords []string
		for i, raw := range strings.Fields(sentence) {
			w := strings.TrimFunc(raw, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if w == "" {
				continue
			}
			if _, isName := nameWords[strings.ToLower(w)]; isName {
				continue
			}
			switch {
			case yearRe.MatchString(w):
				keywords = append(keywords, w)
			case i > 0 && unicode.IsUpper([]rune(w)[0]):
				keywords = append(keywords, w)
			}
		}
		keywords = Unique(keywords)
		if len(keywords) > 3 {
			keywords = keywords[:3]
		}

		term := subject
		if len(keywords) > 0 {
			term = subject + " " + strings.Join(keywords, " ")
		}
		segments = append(segments, Segment{Text: sentence, Term: term})
	}
	return segments
}
