package errors

import (
	"math"
	"strings"
	"unicode"
)

// Servo limits shared by the simulator and local draft checks.
const (
	MaxChannel = 15
	MaxAngle   = 180.0
)

// ValidateSwitchID validates a switch identifier before it is placed into a
// request path. It rejects ids that could alter the path.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 64 characters
func ValidateSwitchID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSwitch, "switch id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidSwitch, "switch id too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSwitch, "switch id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "?", "#"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidSwitch, "switch id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateChannel checks that a servo channel is addressable.
func ValidateChannel(ch int) error {
	if ch < 0 || ch > MaxChannel {
		return New(ErrCodeInvalidChannel, "channel %d out of range (0-%d)", ch, MaxChannel)
	}
	return nil
}

// ValidateAngle checks that a servo angle is finite and within the servo's sweep.
func ValidateAngle(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return New(ErrCodeInvalidAngle, "angle must be a finite number")
	}
	if a < 0 || a > MaxAngle {
		return New(ErrCodeInvalidAngle, "angle %g out of range (0-%g)", a, MaxAngle)
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
