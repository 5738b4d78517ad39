package common

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps s in the given terminal color when enabled is true.
func Colorize(s string, color string, enabled bool) string {
	if !enabled {
		return s
	}
	return color + s + ColorReset
}
