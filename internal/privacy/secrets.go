// Package privacy keeps credentials out of text that leaves the process.
package privacy

import (
	"regexp"
	"strings"
)

// secretPatterns match credentials that can surface in upstream error bodies
// or echoed request details. Order matters: a bearer header is consumed
// whole before the bare key patterns run.
var secretPatterns = []*regexp.Regexp{
	// Authorization header values
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.-]{20,}`),

	// PostHog personal and project API keys
	regexp.MustCompile(`phx_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`phc_[a-zA-Z0-9]{20,}`),

	// Key assignments in query strings, JSON or config dumps
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|personal_api_key)\s*["']?\s*[:=]\s*['"]?[a-zA-Z0-9_-]{20,}['"]?`),
	regexp.MustCompile(`(?i)(secret[_-]?key|secret[_-]?token|auth[_-]?token)\s*[:=]\s*['"]?[a-zA-Z0-9_-]{20,}['"]?`),
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"][^'"]{8,}['"]`),

	// JWT tokens
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),

	// AWS access keys, for self-hosted instances fronted by S3 errors
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
}

// ContainsSecrets reports whether text contains anything that looks like a credential.
func ContainsSecrets(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range secretPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// RedactSecrets replaces detected credentials with a redaction marker.
// Assignments keep their key name; bare tokens keep a four character prefix.
func RedactSecrets(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if idx := strings.IndexAny(match, "=:"); idx != -1 {
				return match[:idx+1] + "[REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return result
}

// RedactError returns the redacted message of err, or "" for nil.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactSecrets(err.Error())
}
