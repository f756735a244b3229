package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

const maxFileNameLen = 255

// ValidateFileName accepts a bare file name as sent by a browser upload.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxFileNameLen {
		return fmt.Errorf("file name is longer than %d characters", maxFileNameLen)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("file name must not contain a path")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return fmt.Errorf("invalid characters in file name")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateTextLength checks text against a character (not byte) limit.
// A limit of zero or less disables the check.
func ValidateTextLength(text string, limit int) error {
	if limit <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(text); n > limit {
		return fmt.Errorf("text is %d characters, the limit is %d", n, limit)
	}
	return nil
}
