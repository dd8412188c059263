// internal/domain/account/account.go
package account

import "strings"

const (
	MinIDLength = 2
	MaxIDLength = 64
)

// ValidateID reports whether s is a well-formed account identifier:
// 2-64 characters, lowercase alphanumeric segments separated by single
// '.', '_' or '-' characters, never starting or ending on a separator.
func ValidateID(s string) bool {
	if len(s) < MinIDLength || len(s) > MaxIDLength {
		return false
	}

	prevSeparator := true // a separator may not open the id
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			prevSeparator = false
		case c == '.' || c == '_' || c == '-':
			if prevSeparator {
				return false
			}
			prevSeparator = true
		default:
			return false
		}
	}

	return !prevSeparator
}

// Normalize lowercases an identifier before validation or comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
