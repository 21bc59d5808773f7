package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateLayerLabel validates an Inkscape layer label before it is written
// into the SVG document.
//
// The validation rules are intentionally conservative:
//   - No control characters (not representable in XML 1.0)
//   - Maximum length of 256 characters
//
// An empty label is valid and means "no layer".
func ValidateLayerLabel(label string) error {
	if len(label) > 256 {
		return New(ErrCodeInvalidOption, "layer label too long (max 256 characters)")
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOption, "layer label contains invalid control characters")
		}
	}
	return nil
}

// colorRegex matches CSS color keywords, hex colors and rgb()/rgba() functions.
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\(\s*[0-9.%]+\s*(,\s*[0-9.%]+\s*){2,3}\))$`)

// ValidateColor validates a stroke or fill color.
// Colors end up inside a style attribute, so anything that could terminate
// the declaration (";", quotes, braces) is rejected.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidOption, "color cannot be empty")
	}
	if strings.ContainsAny(color, ";:\"'{}<>") {
		return New(ErrCodeInvalidOption, "color contains invalid characters: %q", color)
	}
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidOption, "invalid color: %q", color)
	}
	return nil
}

// ValidateExecutable validates a solver executable name or path.
// It rejects values that cannot name a file: empty strings and strings with
// control characters or null bytes.
func ValidateExecutable(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidOption, "solver executable cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidOption, "solver executable contains invalid characters")
		}
	}
	return nil
}
