package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches style, layer, camera and light names as written in scene files.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates an identifier used as a style, layer, camera or light name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
//   - Letters, digits, '_', '.', '-' only, starting with a letter or '_'
func ValidateName(kind Code, name string) error {
	if name == "" {
		return New(kind, "name cannot be empty")
	}

	if len(name) > 128 {
		return New(kind, "name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(kind, "name contains invalid control characters")
		}
	}

	if !identRegex.MatchString(name) {
		return New(kind, "invalid name: %q", name)
	}

	return nil
}

// ValidateStyleName validates a style name. The empty string is accepted:
// it selects the baseline.
func ValidateStyleName(name string) error {
	if name == "" {
		return nil
	}
	return ValidateName(ErrCodeInvalidStyle, name)
}

// ValidateLayerName validates a layer name.
func ValidateLayerName(name string) error {
	return ValidateName(ErrCodeInvalidLayer, name)
}

// ValidateScenePath validates a scene file path or URL.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - Local files must end in .toml, .yaml or .yml
//   - URLs must use http or https
func ValidateScenePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "scene path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "://") {
		return ValidateURL(path)
	}

	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".toml") && !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
		return New(ErrCodeInvalidFormat, "scene file must be .toml, .yaml or .yml: %q", path)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
