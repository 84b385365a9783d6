package opqueue

import "strings"

// Only specific mutating endpoints may be queued for later replay.
// Read-only calls and anything unsafe to replay must never land here.
// A "*" segment matches exactly one path segment.
var queueablePatterns = []struct {
	method  string
	pattern string
}{
	{"POST", "/voices"},
	{"DELETE", "/voices/*"},
	{"POST", "/voices/*/stories/*/audio"},
}

// Queueable reports whether method+endpoint is on the replay allow-list.
// Query strings are ignored for matching.
func Queueable(method, endpoint string) bool {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	for _, p := range queueablePatterns {
		if p.method == method && matchPattern(p.pattern, endpoint) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if ps[i] == "*" {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
