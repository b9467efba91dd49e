package tui

import (
	"fmt"

	"github.com/muesli/termenv"

	"github.com/aretw0/gantry/pkg/domain"
)

// PrintBanner outputs the gantry ASCII banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient (indigo to rose)
	s1 := termenv.String("   __ _  __ _ _ __ | |_ _ __ _   _ ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  / _` |/ _` | '_ \\| __| '__| | | |").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" | (_| | (_| | | | | |_| |  | |_| |").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("  \\__, |\\__,_|_| |_|\\__|_|   \\__, |").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("   __/ |                      __/ |").Foreground(p.Color("#f472b6"))
	s6 := termenv.String("  |___/                      |___/ ").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}

// StatusBadge colors a run status for terminal output.
func StatusBadge(status domain.RunStatus) string {
	p := termenv.ColorProfile()
	switch status {
	case domain.RunSucceeded:
		return termenv.String(string(status)).Foreground(p.Color("#22c55e")).Bold().String()
	case domain.RunFailed:
		return termenv.String(string(status)).Foreground(p.Color("#ef4444")).Bold().String()
	default:
		return string(status)
	}
}
