package compositor

import "github.com/maauso/sportsreel-api/internal/images"

// minUniqueImages caps the unique-image threshold below which duplicates are kept.
const minUniqueImages = 5

// ArrangeSlides decides which image URLs become slides and in what order.
// With too few unique images (fewer than min(5, len/2)) every occurrence is
// kept and spread apart. Otherwise the unique images are used and, when
// there are fewer than target, cycled without consecutive repeats up to
// target or the original list length, whichever is smaller.
func ArrangeSlides(urls []string, target int) []string {
	if len(urls) == 0 {
		return nil
	}

	unique := images.Unique(urls)
	if len(unique) < min(minUniqueImages, len(urls)/2) {
		return images.Arrange(urls)
	}

	arranged := images.Arrange(unique)
	limit := min(target, len(urls))
	for len(arranged) < limit {
		added := false
		for _, u := range unique {
			if len(arranged) >= limit {
				break
			}
			if arranged[len(arranged)-1] != u {
				arranged = append(arranged, u)
				added = true
			}
		}
		if !added {
			break
		}
	}
	return arranged
}
