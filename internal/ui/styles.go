package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: confirmations
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: pending, warnings
	ColorError     = lipgloss.Color("#FF4444") // red: failures
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: token amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray: hints, metadata
	ColorBorder    = lipgloss.Color("#6F4E37") // coffee brown: UI chrome
	ColorChain     = lipgloss.Color("#9B5DE5") // purple: network ids
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: section headers, focus
	ColorInfo      = lipgloss.Color("#C8A27A") // latte: informational lines
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleFocused = StyleBorder.
			BorderForeground(ColorHighlight)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleKey = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the cappu ASCII banner.
func Banner() string {
	art := `
   ██████╗ █████╗ ██████╗ ██████╗ ██╗   ██╗
  ██╔════╝██╔══██╗██╔══██╗██╔══██╗██║   ██║
  ██║     ███████║██████╔╝██████╔╝██║   ██║
  ██║     ██╔══██║██╔═══╝ ██╔═══╝ ██║   ██║
  ╚██████╗██║  ██║██║     ██║     ╚██████╔╝
   ╚═════╝╚═╝  ╚═╝╚═╝     ╚═╝      ╚═════╝`

	tagline := StyleMeta.Render("     StarDucks Cappucino Token Sale  ☕")

	return StyleChain.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a usage hint.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a network id.
func ChainName(c string) string { return StyleChain.Render(c) }

// KeyHint renders a key binding followed by what it does.
func KeyHint(key, action string) string {
	return StyleKey.Render(key) + " " + action
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
