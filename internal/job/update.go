package job

// DefaultAspectRatio is used when a submission does not specify one.
const DefaultAspectRatio = "9:16"

// Update is a typed partial update of a Job.
// Nil fields are left unchanged; StepTimings entries are merged.
type Update struct {
	Stage        *Stage
	Progress     *int
	ErrorMessage *string
	Script       *string
	ImageURLs    []string
	AudioURL     *string
	SubtitlesURL *string
	VideoURL     *string
	ThumbnailURL *string
	Duration     *float64
	StepTimings  StepTimings
}

// NewUpdate returns an empty Update.
func NewUpdate() Update {
	return Update{}
}

// SetStage sets the target stage.
func (u Update) SetStage(s Stage) Update {
	u.Stage = &s
	return u
}

// SetProgress sets the progress percentage.
func (u Update) SetProgress(p int) Update {
	u.Progress = &p
	return u
}

// SetError sets the error message.
func (u Update) SetError(msg string) Update {
	u.ErrorMessage = &msg
	return u
}

// SetScript sets the generated script.
func (u Update) SetScript(s string) Update {
	u.Script = &s
	return u
}

// SetImageURLs replaces the ordered image list.
func (u Update) SetImageURLs(urls []string) Update {
	u.ImageURLs = append([]string{}, urls...)
	return u
}

// SetAudioURL sets the uploaded narration URL.
func (u Update) SetAudioURL(url string) Update {
	u.AudioURL = &url
	return u
}

// SetSubtitlesURL sets the uploaded subtitle track URL.
func (u Update) SetSubtitlesURL(url string) Update {
	u.SubtitlesURL = &url
	return u
}

// SetVideoURL sets the final video URL.
func (u Update) SetVideoURL(url string) Update {
	u.VideoURL = &url
	return u
}

// SetThumbnailURL sets the thumbnail URL.
func (u Update) SetThumbnailURL(url string) Update {
	u.ThumbnailURL = &url
	return u
}

// SetDuration sets the final video duration in seconds.
func (u Update) SetDuration(d float64) Update {
	u.Duration = &d
	return u
}

// AddTiming records one step_timings entry.
func (u Update) AddTiming(label string, seconds float64) Update {
	t := u.StepTimings.Clone()
	if t == nil {
		t = StepTimings{}
	}
	t[label] = seconds
	u.StepTimings = t
	return u
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Stage == nil && u.Progress == nil && u.ErrorMessage == nil &&
		u.Script == nil && u.ImageURLs == nil && u.AudioURL == nil &&
		u.SubtitlesURL == nil && u.VideoURL == nil && u.ThumbnailURL == nil &&
		u.Duration == nil && len(u.StepTimings) == 0
}
