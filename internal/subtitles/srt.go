package subtitles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidSRT is returned when an SRT document cannot be parsed.
var ErrInvalidSRT = errors.New("subtitles: invalid srt")

var timingLineRe = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{3})`)

// FormatTimestamp renders seconds as an SRT timestamp, HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// WriteSRT writes segs as a numbered SRT document.
func WriteSRT(w io.Writer, segs []Segment) error {
	for i, seg := range segs {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), strings.TrimSpace(seg.Text)); err != nil {
			return err
		}
	}
	return nil
}

// RenderSRT returns segs as an SRT string.
func RenderSRT(segs []Segment) string {
	var sb strings.Builder
	_ = WriteSRT(&sb, segs)
	return sb.String()
}

// WriteFile writes segs as SRT to path.
func WriteFile(path string, segs []Segment) error {
	return os.WriteFile(path, []byte(RenderSRT(segs)), 0o600)
}

// ParseSRT reads an SRT document. Cue numbers are ignored; multi-line cue
// text is joined with spaces.
func ParseSRT(r io.Reader) ([]Segment, error) {
	var (
		segs    []Segment
		current *Segment
		lines   []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(lines, " ")
			if current.Text != "" {
				segs = append(segs, *current)
			}
		}
		current, lines = nil, nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			flush()
			continue
		}
		if m := timingLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Segment{Start: parseClock(m[1:5]), End: parseClock(m[5:9])}
			continue
		}
		if current == nil {
			// Cue number or stray text before a timing line.
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
			return nil, fmt.Errorf("%w: unexpected line %q", ErrInvalidSRT, line)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return segs, nil
}

func parseClock(parts []string) float64 {
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	ms, _ := strconv.Atoi(parts[3])
	return float64(h*3600+m*60+s) + float64(ms)/1000
}
