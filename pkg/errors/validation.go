package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ImageExtensions lists the file extensions (lower case, without the dot)
// accepted as sprite sources.
var ImageExtensions = []string{"png", "jpg", "jpeg", "bmp", "gif", "tif", "tiff", "webp"}

// ValidatePath validates a file system path supplied by a user or a config
// file. Absolute and relative paths are both allowed.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
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

// ValidateImageExtension checks that path ends in one of [ImageExtensions].
func ValidateImageExtension(path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return New(ErrCodeInvalidFormat, "%s has no file extension", path)
	}
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported image extension %q", ext)
}

// ValidateSpriteName validates a sprite identifier received over the network.
// Names end up as keys in map files, so separators that break the txt and xml
// formats are rejected.
func ValidateSpriteName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "sprite name cannot be empty")
	}

	if len(name) > 512 {
		return New(ErrCodeInvalidInput, "sprite name too long (max 512 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "sprite name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "<>&=") {
		return New(ErrCodeInvalidInput, "sprite name contains reserved characters: %q", name)
	}

	return nil
}
