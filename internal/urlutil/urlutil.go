package urlutil

import (
	"net/url"
	"strings"
)

// StripFragment removes URL fragments while keeping scheme/host/path/query.
func StripFragment(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err == nil {
		parsed.Fragment = ""
		return parsed.String()
	}

	if idx := strings.Index(trimmed, "#"); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// Resolve resolves a possibly-relative reference against a base URL.
// An absolute ref is returned as-is; an unparseable input falls back to
// base + "/" + ref.
func Resolve(base, ref string) string {
	trimmedRef := strings.TrimSpace(ref)
	if trimmedRef == "" {
		return strings.TrimSpace(base)
	}

	parsedRef, err := url.Parse(trimmedRef)
	if err == nil && parsedRef.IsAbs() {
		return trimmedRef
	}

	parsedBase, baseErr := url.Parse(strings.TrimSpace(base))
	if err != nil || baseErr != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(trimmedRef, "/")
	}
	return parsedBase.ResolveReference(parsedRef).String()
}

// PageName extracts the page file name from a URL path, dropping query and
// fragment parts. Empty paths and trailing slashes resolve to fallback.
func PageName(rawPath, fallback string) string {
	trimmed := strings.TrimSpace(rawPath)
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
