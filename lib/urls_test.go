package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHTTPURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected bool
	}{
		{url: "http://example.com", expected: true},
		{url: "https://example.com:8443/v1", expected: true},
		{url: "ftp://example.com", expected: false},
		{url: "/v1", expected: false},
		{url: "example.com", expected: false},
		{url: "https://", expected: false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, IsHTTPURL(tc.url), tc.url)
	}
}

func TestGetHostFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
	}{
		{url: "http://example.com/path", expected: "example.com"},
		{url: "https://api.example.com:8443", expected: "api.example.com:8443"},
		{url: "not a url", expected: "not a url"},
		{url: "/relative", expected: "/relative"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, GetHostFromURL(tc.url), tc.url)
	}
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://a.example.com/v1/pets", JoinURL("https://a.example.com/v1/", "/pets"))
	assert.Equal(t, "https://a.example.com/pets", JoinURL("https://a.example.com", "pets"))
}
