// Package pattern implements the dotted wildcard routing-pattern grammar
// shared by the pub/sub and queue transports: segments separated by `.`,
// where `*` matches exactly one segment and `#` matches zero or more
// segments (RabbitMQ topic-exchange conventions).
package pattern

import "strings"

// Match reports whether pattern matches key under the `*`/`#` grammar.
// Matching is case-insensitive on segments; `.` is the only separator and
// is matched literally.
func Match(pattern, key string) bool {
	pSegs := strings.Split(strings.ToLower(pattern), ".")
	kSegs := strings.Split(strings.ToLower(key), ".")
	return matchSegments(pSegs, kSegs)
}

// matchSegments recursively matches pattern segments against key segments.
// `#` absorbs zero-or-more remaining key segments, tried longest-first and
// backtracking to shorter absorptions until the segments after `#` match.
func matchSegments(p, k []string) bool {
	if len(p) == 0 {
		return len(k) == 0
	}

	head, rest := p[0], p[1:]

	if head == "#" {
		// Try absorbing the longest possible suffix first, backtracking to
		// shorter absorptions so a concrete segment after `#` can match.
		for n := len(k); n >= 0; n-- {
			if matchSegments(rest, k[n:]) {
				return true
			}
		}
		return false
	}

	if len(k) == 0 {
		return false
	}

	if head == "*" || head == k[0] {
		return matchSegments(rest, k[1:])
	}

	return false
}
