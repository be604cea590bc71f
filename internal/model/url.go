package model

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for use as a cache or dedup identity key:
// scheme and host lowercased, querystring and fragment stripped, trailing
// slash trimmed. Unparseable input is returned trimmed rather than rejected
// so callers always get a usable key.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}

// HostOf returns the lowercased hostname of a URL, or "" if unparseable.
// Used for per-host request pacing and ban-list checks.
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
