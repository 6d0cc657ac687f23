// Package dedupe builds deterministic keys for ad tracking events.
//
// All functions are pure: same inputs always produce the same key, so
// results are safe to memoize and safe to call from any number of
// concurrent request handlers. Functions that may have nothing useful
// to return use comma-ok returns; callers must treat ok=false as
// "cannot dedupe" rather than an error.
package dedupe

import (
	"net/url"
	"strings"
)

// PageRef is the logical page an event occurred on, as reported by the
// client. PageURL may be an absolute URL or a relative path. Fallback
// is used as the key part when no path or slug can be derived.
type PageRef struct {
	PageType string
	PageURL  string
	Fallback string
}

// IdentityRef is the actor behind an event. At most one of the two
// fields is authoritative; UserID takes precedence.
type IdentityRef struct {
	UserID    string
	SessionID string
}

// Request carries everything needed to compose a dedup key. Type and
// AdID are mandatory; the rest is optional depending on the path taken
// (see Key).
type Request struct {
	Type        string
	AdID        string
	PageKey     string
	IdentityKey string
	EventID     string
}

// slugPrefixes maps a normalized page type to the path prefixes under
// which the last path segment is the canonical slug.
var slugPrefixes = map[string]map[string]bool{
	"article":  {"article": true, "articles": true},
	"category": {"category": true, "categories": true},
	"page":     {"page": true, "pages": true},
}

// NormalizePageType lower-cases the page type, folds the known plural
// alias "articles" to "article", and buckets missing types as "other".
// Unknown types pass through lower-cased; they are valid input.
func NormalizePageType(pageType string) string {
	t := strings.ToLower(pageType)
	switch t {
	case "":
		return "other"
	case "articles":
		return "article"
	}
	return t
}

// NormalizePagePath canonicalizes a URL or path to a bare path so that
// the same logical page keys identically regardless of how the client
// expressed it (absolute vs. relative, trailing slash, query params).
//
// Absolute http(s) URLs are reduced to their path component; a URL
// that fails to parse yields "" rather than an error. Query string and
// fragment are always stripped. The result has exactly one leading
// slash and no trailing slash (except the root path "/"). Empty input
// yields "".
func NormalizePagePath(value string) string {
	if value == "" {
		return ""
	}

	p := value
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		u, err := url.Parse(p)
		if err != nil {
			return ""
		}
		p = u.Path
	}

	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// PageKey builds the canonical "type:keyPart" page key.
//
// When the path's first segment matches a known prefix for the type
// (e.g. /articles/... for type article) and there is at least one more
// segment, the key part is the last path segment: the slug is the
// canonical identity of an article/category/page, so different route
// shapes pointing at the same slug must key identically. Otherwise the
// key part falls back to the normalized path, then ref.Fallback, then
// the type itself.
func PageKey(ref PageRef) string {
	t := NormalizePageType(ref.PageType)
	path := NormalizePagePath(ref.PageURL)

	keyPart := ""
	if prefixes, ok := slugPrefixes[t]; ok && len(path) > 1 {
		segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
		if len(segments) >= 2 && prefixes[segments[0]] {
			keyPart = segments[len(segments)-1]
		}
	}
	if keyPart == "" {
		keyPart = path
	}
	if keyPart == "" {
		keyPart = ref.Fallback
	}
	if keyPart == "" {
		keyPart = t
	}
	return t + ":" + keyPart
}

// IdentityKey resolves a request context to a single actor key.
// An authenticated user id always wins over a session id: a logged-in
// identity is durable across session churn, and mixing the two would
// double count the same person across login transitions. With neither
// present it returns ok=false; callers must not dedupe on an unknown
// identity.
func IdentityKey(ref IdentityRef) (string, bool) {
	if ref.UserID != "" {
		return "user:" + ref.UserID, true
	}
	if ref.SessionID != "" {
		return "session:" + ref.SessionID, true
	}
	return "", false
}

// Key composes the dedup key for a tracking event, or returns ok=false
// when the inputs are too weak to dedupe safely.
//
// Type and AdID are always required. With a client-supplied EventID the
// event id alone guarantees per-event uniqueness, so missing identity
// or page context degrades to the "anon" / "no-page" buckets (kept in
// the key only for partitioning). Without an EventID the key is purely
// structural — same actor, same ad, same page — so both the identity
// and page keys are required; building a weaker key would cause false
// merges of distinct events.
func Key(req Request) (string, bool) {
	if req.Type == "" || req.AdID == "" {
		return "", false
	}

	if req.EventID != "" {
		identity := req.IdentityKey
		if identity == "" {
			identity = "anon"
		}
		page := req.PageKey
		if page == "" {
			page = "no-page"
		}
		return req.Type + ":" + identity + ":" + req.AdID + ":" + page + ":" + req.EventID, true
	}

	if req.IdentityKey == "" || req.PageKey == "" {
		return "", false
	}
	return req.Type + ":" + req.IdentityKey + ":" + req.AdID + ":" + req.PageKey, true
}
