package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// KnownRoutes lists the entity routes served by the inventory service.
// Labels for these kinds resolve to live records when scanned.
var KnownRoutes = []string{"site", "container", "item", "item_location"}

// routeRegex matches a single URL path segment made of safe characters.
var routeRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateRoute validates the entity route segment used to build locators.
// It accepts the known routes and any custom lowercase segment that cannot
// escape the root URL.
//
// The validation rules are intentionally conservative:
//   - No empty routes
//   - No slashes, so a route is exactly one path segment
//   - Only lowercase letters, digits, '-' and '_'
//   - Maximum length of 64 characters
func ValidateRoute(route string) error {
	if route == "" {
		return New(ErrCodeInvalidRoute, "route cannot be empty")
	}
	if len(route) > 64 {
		return New(ErrCodeInvalidRoute, "route too long (max 64 characters)")
	}
	if strings.Contains(route, "/") {
		return New(ErrCodeInvalidRoute, "route must be a single path segment: %q", route)
	}
	if !routeRegex.MatchString(route) {
		return New(ErrCodeInvalidRoute, "invalid route: %q", route)
	}
	return nil
}

// IsKnownRoute reports whether route is one of KnownRoutes.
func IsKnownRoute(route string) bool {
	for _, r := range KnownRoutes {
		if r == route {
			return true
		}
	}
	return false
}

// ValidateRootURL validates the base URL that scan targets are built from.
// It ensures the URL has a safe scheme (http or https) and no query or
// fragment that the appended path would end up inside.
func ValidateRootURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "root URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidConfig, "root URL must use http or https scheme")
	}

	if strings.ContainsAny(rawURL, "?#") {
		return New(ErrCodeInvalidConfig, "root URL cannot contain a query or fragment")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidConfig, "root URL contains invalid characters")
		}
	}

	return nil
}

// ValidatePath validates a user-supplied output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
