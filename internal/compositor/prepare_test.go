package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maauso/sportsreel-api/internal/images"
)

func TestArrangeSlides_FewUniqueKeepsDuplicates(t *testing.T) {
	// 8 candidates, 3 unique: 3 < min(5, 8/2), so every occurrence is kept.
	urls := []string{"a", "a", "a", "b", "b", "b", "c", "c"}

	got := ArrangeSlides(urls, 8)

	assert.Len(t, got, 8)
	assert.False(t, images.HasConsecutiveDuplicates(got), "got %v", got)
	counts := map[string]int{}
	for _, u := range got {
		counts[u]++
	}
	for _, u := range []string{"a", "b", "c"} {
		assert.GreaterOrEqual(t, counts[u], 2, "url %s", u)
	}
}

func TestArrangeSlides_PadsUniqueToTarget(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e", "a", "b", "c", "d", "e"}

	got := ArrangeSlides(urls, 8)

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "a", "b", "c"}, got)
	assert.False(t, images.HasConsecutiveDuplicates(got))
}

func TestArrangeSlides_PaddingBoundedByInput(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e", "f"}

	got := ArrangeSlides(urls, 8)

	assert.Equal(t, urls, got)
}

func TestArrangeSlides_EnoughUnique(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}

	got := ArrangeSlides(urls, 8)

	assert.Equal(t, urls, got)
}

func TestArrangeSlides_SingleImage(t *testing.T) {
	assert.Equal(t, []string{"a"}, ArrangeSlides([]string{"a", "a"}, 8))
	assert.Nil(t, ArrangeSlides(nil, 8))
}
