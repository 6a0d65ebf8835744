package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitModeFor(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		dstW, dstH int
		want       FitMode
	}{
		{"same ratio", 720, 1280, 480, 854, FitStretch},
		{"within tolerance", 500, 854, 480, 854, FitStretch},
		{"wider crops", 1920, 1080, 480, 854, FitCrop},
		{"square into portrait crops", 600, 600, 480, 854, FitCrop},
		{"taller pads", 400, 1600, 480, 854, FitPad},
		{"portrait into landscape pads", 1080, 1920, 854, 480, FitPad},
		{"unknown size stretches", 0, 0, 480, 854, FitStretch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitModeFor(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if got != tt.want {
				t.Errorf("FitModeFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFitFilter(t *testing.T) {
	assert.Equal(t, "scale=480:854", FitFilter(FitStretch, 480, 854))
	assert.Equal(t, "scale=-2:854,crop=480:854", FitFilter(FitCrop, 480, 854))
	assert.Equal(t,
		"scale=854:-2,crop=854:'min(ih,480)',pad=854:480:0:(oh-ih)/2:color=0x1e1e1e",
		FitFilter(FitPad, 854, 480))
}

func TestFitMode_String(t *testing.T) {
	assert.Equal(t, "pad", FitPad.String())
	assert.Equal(t, "FitMode(9)", FitMode(9).String())
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		ratio string
		w, h  int
	}{
		{"9:16", 480, 854},
		{"16:9", 854, 480},
		{"1:1", 480, 480},
		{"4:3", 480, 854},
		{"", 480, 854},
	}
	for _, tt := range tests {
		w, h := Dimensions(tt.ratio)
		if w != tt.w || h != tt.h {
			t.Errorf("Dimensions(%q) = %dx%d, want %dx%d", tt.ratio, w, h, tt.w, tt.h)
		}
	}
}
