package slogx

import "log/slog"

// MaskPhone keeps the last four characters of a phone number so log lines can
// be correlated without recording the full number.
func MaskPhone(phone string) string {
	const visible = 4
	if len(phone) <= visible {
		return "****"
	}
	masked := make([]byte, len(phone))
	for i := range len(phone) - visible {
		if phone[i] == '+' {
			masked[i] = '+'
			continue
		}
		masked[i] = '*'
	}
	copy(masked[len(phone)-visible:], phone[len(phone)-visible:])
	return string(masked)
}

// Phone is a slog attribute carrying a masked phone number.
func Phone(phone string) slog.Attr {
	return slog.String("phone", MaskPhone(phone))
}
