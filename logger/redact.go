package logger

import "strings"

// Redacted replaces sensitive values in log output.
const Redacted = "[REDACTED]"

var sensitiveKeyParts = []string{"iam_role", "role_arn", "password", "secret", "token", "credentials", "access_key"}

// IsSensitiveKey reports whether values stored under key must not be logged.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}

// Redact returns a copy of params with sensitive values replaced by Redacted.
// Empty values stay empty so missing-parameter diagnostics are unchanged.
func Redact(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" && IsSensitiveKey(k) {
			out[k] = Redacted
			continue
		}
		out[k] = v
	}
	return out
}
