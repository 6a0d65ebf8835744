package job

import "strings"

// Reserved step_timings keys.
const (
	// TimingTotal is the sum of all successful step entries.
	TimingTotal = "total_processing_time"
	// TimingErrorOccurredAt is a unix timestamp recorded when an unexpected
	// error aborted the run.
	TimingErrorOccurredAt = "error_occurred_at"

	failedSuffix = "_failed"
)

// StepTimings maps stage labels to elapsed seconds.
// Entries are only ever added; Merge overwrites a key only with a newer value
// for the same label.
type StepTimings map[string]float64

// FailedLabel returns the key used to record a failed step.
func FailedLabel(label string) string {
	return label + failedSuffix
}

// Merge copies every entry of other into t.
func (t StepTimings) Merge(other StepTimings) {
	for k, v := range other {
		t[k] = v
	}
}

// Total returns the sum of successful step entries. Failure entries,
// the error marker and a previously computed total are excluded.
func (t StepTimings) Total() float64 {
	var sum float64
	for k, v := range t {
		if strings.HasSuffix(k, failedSuffix) || k == TimingTotal || k == TimingErrorOccurredAt {
			continue
		}
		sum += v
	}
	return sum
}

// Clone returns a copy of t. A nil map clones to nil.
func (t StepTimings) Clone() StepTimings {
	if t == nil {
		return nil
	}
	out := make(StepTimings, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
