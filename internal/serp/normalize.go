package serp

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL string for equality comparison: scheme,
// leading "www." and trailing slashes are removed and the result is
// lowercased. Normalize(Normalize(u)) == Normalize(u) for every input.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	for {
		prev := s
		s = strings.TrimSpace(s)
		s = trimScheme(s)
		s = strings.TrimPrefix(s, "www.")
		s = strings.TrimRight(s, "/")
		if s == prev {
			return s
		}
	}
}

func trimScheme(s string) string {
	if rest, ok := strings.CutPrefix(s, "https://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "http://"); ok {
		return rest
	}
	return s
}

// Hostname returns the normalized host of a URL-ish string. The scheme is
// optional and any port is dropped.
func Hostname(raw string) string {
	n := Normalize(raw)
	if n == "" {
		return ""
	}
	if u, err := url.Parse("http://" + n); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	host := n
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
