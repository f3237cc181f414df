package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// Security limits and configuration
const (
	// MaxNameLength is the maximum length for module and function names
	MaxNameLength = 255

	// DefaultMaxLineBytes is the default size limit for one invocation unit (1MB)
	DefaultMaxLineBytes = 1 << 20

	// MaxLineBytes is the hard limit for one invocation unit (64MB)
	MaxLineBytes = 64 << 20

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxStoredInputLength is the maximum length of input kept in the journal
	MaxStoredInputLength = 1024
)

// validIdentifier matches one Go or Python style identifier
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateFunctionName validates a function name
func ValidateFunctionName(name string) error {
	if name == "" {
		return core.ErrInvalidFunctionName
	}
	if len(name) > MaxNameLength {
		return core.ErrNameTooLong
	}
	if !validIdentifier.MatchString(name) {
		return core.ErrInvalidFunctionName
	}
	return nil
}

// ValidateModuleName validates a dotted module name such as "pkg.sub"
func ValidateModuleName(name string) error {
	if name == "" {
		return core.ErrInvalidModuleName
	}
	if len(name) > MaxNameLength {
		return core.ErrNameTooLong
	}
	for _, part := range strings.Split(name, ".") {
		if !validIdentifier.MatchString(part) {
			return core.ErrInvalidModuleName
		}
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	return truncate(stripControl(msg), MaxErrorMessageLength)
}

// SanitizeInput truncates an invocation unit for storage
func SanitizeInput(line string) string {
	return truncate(stripControl(line), MaxStoredInputLength)
}

// ClampLineBytes ensures a line size limit is within bounds
func ClampLineBytes(n int) int {
	if n <= 0 {
		return DefaultMaxLineBytes
	}
	if n > MaxLineBytes {
		return MaxLineBytes
	}
	return n
}

// stripControl removes null bytes and control characters (except newlines and tabs)
func stripControl(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) > limit {
		runes := []rune(s)
		return string(runes[:limit-3]) + "..."
	}
	return s
}
