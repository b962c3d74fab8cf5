package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Window returns a copy of at most n elements of s starting at start.
// Out-of-range bounds are clamped, so the result is never longer than n.
func Window[T any](s []T, start, n int) []T {
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	end := start + n
	if n < 0 || end > len(s) {
		end = len(s)
	}
	out := make([]T, end-start)
	copy(out, s[start:end])
	return out
}
