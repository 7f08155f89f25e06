package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	controlChars    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)
	hexIDPattern    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// maxFileNameLength bounds stored file names, extension included
const maxFileNameLength = 120

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeFileName reduces an uploaded file name to a safe single path segment.
// Directory components are dropped and unsafe runs become a single underscore.
func SanitizeFileName(name string) string {
	name = SanitizeString(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxFileNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFileNameLength-len(ext)] + ext
	}
	return name
}

// FileExtension returns the lower-cased extension of name including the dot
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(SanitizeFileName(name)))
}

// ValidateObjectID checks the 24-hex-character id format used by the document store
func ValidateObjectID(id string) error {
	if !hexIDPattern.MatchString(id) {
		return fmt.Errorf("invalid id format: %q", id)
	}
	return nil
}
