// Package redact strips sensitive information from strings before they are
// logged or returned in error responses. Verification codes are long-lived
// credentials and must never appear in logs, even when a provider or database
// error embeds the original request in its message.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedVCodePlaceholder      = "[REDACTED_VCODE]"
)

var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis|mysql)://[^@\s]+@`)

	// Verification codes: labeled credential-like tokens. Provider codes are
	// 64-character alphanumeric strings, but query strings and error messages
	// sometimes truncate them, so match any labeled run of 16 or more.
	vcodeRegex = regexp.MustCompile(`(?i)(vcode|v_code|apikey|api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9+/=_-]{16,}`)

	// Bare 64-character alphanumeric runs, the exact shape of a full code.
	bareVCodeRegex = regexp.MustCompile(`\b[A-Za-z0-9]{64}\b`)

	// Passwords in connection parameters or error text.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)

	// SQL fragments leaked from the persistence layer.
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"$]+)?`,
	)

	patterns = []*regexp.Regexp{
		dbConnRegex, vcodeRegex, bareVCodeRegex, passwordRegex, sqlRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:    RedactedCredentialPlaceholder,
		vcodeRegex:     RedactedVCodePlaceholder,
		bareVCodeRegex: RedactedVCodePlaceholder,
		passwordRegex:  RedactedCredentialPlaceholder,
		sqlRegex:       "[REDACTED_SQL]",
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
