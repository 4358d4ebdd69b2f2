package shortener

import (
	"strings"
	"time"
)

// Code is the short token a link is addressed by.
type Code string

// Views holds access counts over the standard reporting windows.
type Views struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	All   int64 `json:"all"`
}

// Link binds a canonical URL to its short code.
//
// The scheme is kept apart from the rest of the URL so that links can be
// displayed and searched without their protocol.
type Link struct {
	Code      Code
	LongURL   string
	Protocol  string // scheme with trailing colon, e.g. "https:"
	HostPath  string // LongURL without "<scheme>://"
	Views     Views
	CreatedAt time.Time
	ExpiresAt time.Time // zero when the link never expires
}

// NewLink builds a link for an already normalized URL.
func NewLink(code Code, longURL string) *Link {
	protocol, hostPath := SplitProtocol(longURL)

	return &Link{
		Code:     code,
		LongURL:  longURL,
		Protocol: protocol,
		HostPath: hostPath,
	}
}

// Summary is a search hit.
type Summary struct {
	Code    Code   `json:"short"`
	LongURL string `json:"long"`
}

// Sample is one point of an access series.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int64     `json:"count"`
}

// SearchQuery is a parsed search expression. Protocol is empty when the
// query did not start with a scheme.
type SearchQuery struct {
	Protocol string
	Text     string
}

// SplitProtocol separates "<scheme>://rest" into "<scheme>:" and "rest".
// Input without a scheme separator is returned as the rest.
func SplitProtocol(raw string) (protocol, rest string) {
	loc := schemePrefix.FindStringIndex(raw)
	if loc == nil {
		return "", raw
	}

	return strings.ToLower(raw[:loc[1]-2]), raw[loc[1]:]
}

// JoinProtocol is the inverse of SplitProtocol.
func JoinProtocol(protocol, rest string) string {
	if protocol == "" {
		return rest
	}

	return protocol + "//" + rest
}

// ParseSearchQuery splits an optional leading scheme from the search text.
func ParseSearchQuery(query string) SearchQuery {
	protocol, text := SplitProtocol(strings.TrimSpace(query))

	return SearchQuery{Protocol: protocol, Text: text}
}
