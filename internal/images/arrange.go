package images

// Arrange reorders urls so that no two consecutive entries are identical,
// keeping every occurrence. At each step the URL with the most remaining
// occurrences that differs from the previous pick is chosen, which spreads
// duplicates evenly. Ties go to the URL seen first in the input. A repeat
// is only accepted when a single distinct URL is left.
func Arrange(urls []string) []string {
	if len(urls) <= 1 {
		return append([]string(nil), urls...)
	}

	var order []string
	remaining := make(map[string]int)
	for _, u := range urls {
		if remaining[u] == 0 {
			order = append(order, u)
		}
		remaining[u]++
	}

	result := make([]string, 0, len(urls))
	last := ""
	for len(result) < len(urls) {
		next := ""
		best := 0
		for _, u := range order {
			if n := remaining[u]; n > best && (u != last || len(result) == 0) {
				next, best = u, n
			}
		}
		if next == "" {
			// Only the previous URL has occurrences left.
			next = last
		}
		result = append(result, next)
		remaining[next]--
		last = next
	}
	return result
}

// Unique returns urls with duplicates removed, keeping first occurrences.
func Unique(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// HasConsecutiveDuplicates reports whether any two neighbours are equal.
func HasConsecutiveDuplicates(urls []string) bool {
	for i := 1; i < len(urls); i++ {
		if urls[i] == urls[i-1] {
			return true
		}
	}
	return false
}
