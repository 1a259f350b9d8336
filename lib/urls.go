package lib

import (
	"net/url"
	"strings"
)

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// GetHostFromURL returns the host (with port) of u, or u itself when it has none.
func GetHostFromURL(u string) string {
	parsedURL, err := url.Parse(u)
	if err != nil || parsedURL.Host == "" {
		return u
	}
	return parsedURL.Host
}

// JoinURL appends path to base with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
