package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// flashLimit bounds a one-line error in the sale screen.
const flashLimit = 72

// padR pads s to visible width n (ANSI-safe using lipgloss.Width).
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// shortErr drops the wrapping context from node errors so the root cause
// fits on one line.
func shortErr(s string) string {
	for _, marker := range []string{
		"execution reverted", "insufficient funds", "nonce too low",
		"dial tcp", "connection refused", "context deadline",
		"notifications not supported",
	} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[idx:]
			break
		}
	}
	if r := []rune(s); len(r) > flashLimit {
		return string(r[:flashLimit]) + "…"
	}
	return s
}
