package media

import (
	"fmt"
	"math"
)

// Effect is a camera motion applied to a still slide.
type Effect string

// Supported effects.
const (
	EffectZoomIn   Effect = "zoom-in"
	EffectZoomOut  Effect = "zoom-out"
	EffectPanLeft  Effect = "pan-left"
	EffectPanRight Effect = "pan-right"
	EffectKenBurns Effect = "ken-burns"
)

// AllEffects lists every effect in a stable order.
var AllEffects = []Effect{EffectZoomIn, EffectZoomOut, EffectPanLeft, EffectPanRight, EffectKenBurns}

const (
	minZoom = 1.0
	maxZoom = 1.2
)

// Frame is the camera state at one instant. Scale is the zoom factor.
// PanX and PanY place the visible window within the zoomed image: 0 is the
// left (top) edge, 1 the right (bottom) edge and 0.5 centred.
type Frame struct {
	Scale float64
	PanX  float64
	PanY  float64
}

// progress maps t within [0, duration) to [0, 1].
func progress(t, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return math.Min(math.Max(t/duration, 0), 1)
}

// At returns the camera state at t seconds into a slide of the given duration.
// Unknown effects hold a static, unzoomed frame.
func (e Effect) At(t, duration float64) Frame {
	p := progress(t, duration)
	switch e {
	case EffectZoomIn:
		return Frame{Scale: minZoom + (maxZoom-minZoom)*p, PanX: 0.5, PanY: 0.5}
	case EffectZoomOut:
		return Frame{Scale: maxZoom - (maxZoom-minZoom)*p, PanX: 0.5, PanY: 0.5}
	case EffectPanLeft:
		return Frame{Scale: maxZoom, PanX: 1 - p, PanY: 0.5}
	case EffectPanRight:
		return Frame{Scale: maxZoom, PanX: p, PanY: 0.5}
	case EffectKenBurns:
		return Frame{Scale: minZoom + (maxZoom-minZoom)*p, PanX: 0.3 + 0.4*p, PanY: 0.3 + 0.4*p}
	default:
		return Frame{Scale: 1, PanX: 0.5, PanY: 0.5}
	}
}

// zoompanExpr returns the z, x and y expressions of ffmpeg's zoompan filter
// for e. Progress is the input frame number over the last frame index, so
// the expressions track At frame by frame.
func (e Effect) zoompanExpr(frames int) (z, x, y string) {
	last := frames - 1
	if last < 1 {
		last = 1
	}
	p := fmt.Sprintf("min(in/%d,1)", last)
	span := maxZoom - minZoom
	slackX := "(iw-iw/zoom)"
	slackY := "(ih-ih/zoom)"
	centreX := slackX + "/2"
	centreY := slackY + "/2"

	switch e {
	case EffectZoomIn:
		return fmt.Sprintf("%.2f+%.2f*%s", minZoom, span, p), centreX, centreY
	case EffectZoomOut:
		return fmt.Sprintf("%.2f-%.2f*%s", maxZoom, span, p), centreX, centreY
	case EffectPanLeft:
		return fmt.Sprintf("%.2f", maxZoom), fmt.Sprintf("%s*(1-%s)", slackX, p), centreY
	case EffectPanRight:
		return fmt.Sprintf("%.2f", maxZoom), fmt.Sprintf("%s*%s", slackX, p), centreY
	case EffectKenBurns:
		drift := fmt.Sprintf("(0.3+0.4*%s)", p)
		return fmt.Sprintf("%.2f+%.2f*%s", minZoom, span, p), slackX + "*" + drift, slackY + "*" + drift
	default:
		return "1", centreX, centreY
	}
}

// EffectFilter builds the -vf chain rendering e over a slide of the given
// duration at w x h and fps frames per second.
func EffectFilter(e Effect, duration float64, w, h, fps int) string {
	frames := int(math.Max(1, math.Round(duration*float64(fps))))
	z, x, y := e.zoompanExpr(frames)
	// Upscaling first keeps zoompan's integer cropping from jittering.
	return fmt.Sprintf("scale=%d:%d,zoompan=z='%s':x='%s':y='%s':d=1:s=%dx%d:fps=%d,format=yuv420p",
		w*2, h*2, z, x, y, w, h, fps)
}
