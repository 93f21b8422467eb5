// Package format renders money and tonnage figures for terminal output.
package format

import "fmt"

// Currency renders an amount with a magnitude suffix, e.g. "$1.2M".
func Currency(amount float64) string {
	switch {
	case amount >= 1e6:
		return fmt.Sprintf("$%.1fM", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("$%.1fK", amount/1e3)
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
}

// Tonnage renders a weight in MT with a magnitude suffix, e.g. "3.4K MT".
func Tonnage(tonnage float64) string {
	switch {
	case tonnage >= 1e6:
		return fmt.Sprintf("%.1fM MT", tonnage/1e6)
	case tonnage >= 1e3:
		return fmt.Sprintf("%.1fK MT", tonnage/1e3)
	default:
		return fmt.Sprintf("%.0f MT", tonnage)
	}
}
