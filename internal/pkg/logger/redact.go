package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactRef masks an opaque external reference, keeping a short prefix for
// correlation. "farm-8f3a2c91" → "farm***"
func RedactRef(ref string) string {
	if len(ref) <= 4 {
		return "***"
	}
	return ref[:4] + "***"
}
