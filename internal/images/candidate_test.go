package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{1080, 1920, "9:16"},
		{1920, 1080, "16:9"},
		{600, 600, "1:1"},
		{800, 600, "4:3"},
		{0, 600, "1:1"},
		{600, 0, "1:1"},
	}
	for _, tt := range tests {
		if got := CalculateAspectRatio(tt.w, tt.h); got != tt.want {
			t.Errorf("CalculateAspectRatio(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestNewCandidate(t *testing.T) {
	c := NewCandidate("https://img/a.jpg", 1080, 1920, "lebron portrait")

	assert.Equal(t, "9:16", c.AspectRatio)
	assert.True(t, c.IsVertical)
	assert.Equal(t, "lebron portrait", c.SearchTerm)
}

func TestParseAspectRatio(t *testing.T) {
	w, h, err := ParseAspectRatio("16:9")
	require.NoError(t, err)
	assert.Equal(t, 16, w)
	assert.Equal(t, 9, h)

	for _, bad := range []string{"", "16x9", "a:b", "0:9", "16:-1"} {
		_, _, err := ParseAspectRatio(bad)
		assert.ErrorIs(t, err, ErrInvalidAspectRatio, bad)
	}
}

func TestRankByAspectFit(t *testing.T) {
	vertical := NewCandidate("v", 1080, 1920, "")
	square := NewCandidate("s", 600, 600, "")
	horizontal := NewCandidate("h", 1920, 1080, "")
	input := []Candidate{horizontal, square, vertical}

	t.Run("portrait target prefers vertical", func(t *testing.T) {
		ranked, err := RankByAspectFit(input, "9:16")
		require.NoError(t, err)
		assert.Equal(t, []string{"v", "s", "h"}, URLs(ranked))
	})

	t.Run("landscape target prefers horizontal", func(t *testing.T) {
		ranked, err := RankByAspectFit(input, "16:9")
		require.NoError(t, err)
		assert.Equal(t, []string{"h", "s", "v"}, URLs(ranked))
	})

	t.Run("input is not modified", func(t *testing.T) {
		_, err := RankByAspectFit(input, "9:16")
		require.NoError(t, err)
		assert.Equal(t, []string{"h", "s", "v"}, URLs(input))
	})

	t.Run("equal scores keep order", func(t *testing.T) {
		a := NewCandidate("a", 600, 600, "")
		b := NewCandidate("b", 600, 600, "")
		ranked, err := RankByAspectFit([]Candidate{a, b}, "1:1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, URLs(ranked))
	})

	t.Run("invalid target", func(t *testing.T) {
		_, err := RankByAspectFit(input, "wide")
		assert.ErrorIs(t, err, ErrInvalidAspectRatio)
	})
}

func TestAspectFitScore(t *testing.T) {
	target := 16.0 / 9.0
	exact := NewCandidate("v", 900, 1600, "")
	assert.InDelta(t, 10.0, AspectFitScore(exact, target), 1e-9)

	missing := Candidate{URL: "x"}
	assert.InDelta(t, -(target - 1), AspectFitScore(missing, target), 1e-9)
}
