package media

import (
	"fmt"
	"math"
)

// FitMode is how an image is brought to the frame's aspect ratio.
type FitMode int

const (
	// FitStretch scales directly; used when ratios are already close.
	FitStretch FitMode = iota
	// FitCrop scales to the frame height and centre-crops the width.
	FitCrop
	// FitPad scales to the frame width and centres vertically on a
	// background. Height beyond the frame is centre-cropped first.
	FitPad
)

// stretchTolerance is the largest width/height ratio difference that is stretched.
const stretchTolerance = 0.1

// padColor is the dark background behind padded images.
const padColor = "0x1e1e1e"

func (m FitMode) String() string {
	switch m {
	case FitStretch:
		return "stretch"
	case FitCrop:
		return "crop"
	case FitPad:
		return "pad"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// FitModeFor chooses the fit policy for a srcW x srcH image in a dstW x dstH frame.
func FitModeFor(srcW, srcH, dstW, dstH int) FitMode {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return FitStretch
	}
	src := float64(srcW) / float64(srcH)
	dst := float64(dstW) / float64(dstH)
	switch {
	case math.Abs(src-dst) < stretchTolerance:
		return FitStretch
	case src > dst:
		return FitCrop
	default:
		return FitPad
	}
}

// FitFilter returns the ffmpeg filter implementing mode for a w x h frame.
func FitFilter(mode FitMode, w, h int) string {
	switch mode {
	case FitCrop:
		return fmt.Sprintf("scale=-2:%d,crop=%d:%d", h, w, h)
	case FitPad:
		return fmt.Sprintf("scale=%d:-2,crop=%d:'min(ih,%d)',pad=%d:%d:0:(oh-ih)/2:color=%s", w, w, h, w, h, padColor)
	default:
		return fmt.Sprintf("scale=%d:%d", w, h)
	}
}

// Dimensions returns the output frame size for an aspect ratio.
// Unknown ratios use the portrait size.
func Dimensions(aspectRatio string) (int, int) {
	switch aspectRatio {
	case "16:9":
		return 854, 480
	case "1:1":
		return 480, 480
	default:
		return 480, 854
	}
}
