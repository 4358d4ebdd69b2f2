// Package urn builds the structured keys used to address links, counters,
// trackers and search indexes in the backing store.
package urn

import (
	"errors"
	"strings"
)

// Namespace prefixes every key owned by the service.
const Namespace = "urn:shrtnr"

// Type tags the kind of entity a key addresses.
type Type string

const (
	TypeShortURL Type = "short_url"
	TypeLongURL  Type = "long_url"
	TypeCounter  Type = "counter"
	TypeTracker  Type = "tracker"
	TypeSearch   Type = "search"
	TypeCache    Type = "cache"
)

var ErrInvalid = errors.New("invalid urn")

// URN is a key of the form namespace:type:resource.
type URN struct {
	Type     Type
	Resource string
}

// New creates a URN of the given type.
func New(t Type, resource string) URN {
	return URN{Type: t, Resource: resource}
}

func ShortURL(code string) URN { return New(TypeShortURL, code) }
func LongURL(url string) URN   { return New(TypeLongURL, url) }
func Counter(name string) URN  { return New(TypeCounter, name) }
func Tracker(code string) URN  { return New(TypeTracker, code) }
func Search(index string) URN  { return New(TypeSearch, index) }

// Cache wraps another key so cached copies never collide with primary data.
func Cache(of URN) URN { return New(TypeCache, string(of.Type)+":"+of.Resource) }

// Prefix returns namespace:type: which is shared by every key of this type.
func (u URN) Prefix() string {
	return Namespace + ":" + string(u.Type) + ":"
}

func (u URN) String() string {
	return u.Prefix() + u.Resource
}

// Parse splits a key back into its type and resource. The resource may itself
// contain colons (long URLs always do).
func Parse(key string) (URN, error) {
	rest, ok := strings.CutPrefix(key, Namespace+":")
	if !ok {
		return URN{}, ErrInvalid
	}

	t, resource, ok := strings.Cut(rest, ":")
	if !ok || t == "" {
		return URN{}, ErrInvalid
	}

	switch Type(t) {
	case TypeShortURL, TypeLongURL, TypeCounter, TypeTracker, TypeSearch, TypeCache:
		return URN{Type: Type(t), Resource: resource}, nil
	default:
		return URN{}, ErrInvalid
	}
}
