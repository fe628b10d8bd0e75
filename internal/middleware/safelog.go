package middleware

import "strings"

// MaskCredential маскирует токен или session_id в логах (в prod не светить полное значение).
func MaskCredential(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "***"
}
