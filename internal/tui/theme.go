package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemeMode selects the palette.
type ThemeMode string

const (
	ThemeAuto  ThemeMode = "auto"
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

// ThemeContrast selects normal or high contrast colors.
type ThemeContrast string

const (
	ContrastNormal ThemeContrast = "normal"
	ContrastHigh   ThemeContrast = "high"
)

// ThemeOptions configures NewTheme.
type ThemeOptions struct {
	Mode          ThemeMode
	Contrast      ThemeContrast
	NoColor       bool
	ReducedMotion bool
}

// Palette holds the semantic colors used by Styles.
type Palette struct {
	Accent     lipgloss.TerminalColor
	Text       lipgloss.TerminalColor
	Muted      lipgloss.TerminalColor
	Danger     lipgloss.TerminalColor
	Success    lipgloss.TerminalColor
	Surface    lipgloss.TerminalColor
	KeycapText lipgloss.TerminalColor
	KeycapBg   lipgloss.TerminalColor
}

// Theme is a resolved palette plus accessibility switches.
type Theme struct {
	Mode          ThemeMode
	Contrast      ThemeContrast
	NoColor       bool
	ReducedMotion bool
	Palette       Palette
	Border        lipgloss.Border
}

// DefaultThemeOptions returns auto mode at normal contrast.
func DefaultThemeOptions() ThemeOptions {
	return ThemeOptions{Mode: ThemeAuto, Contrast: ContrastNormal}
}

// ThemeOptionsFromEnv derives theme options from the environment.
// Respects:
// - NO_COLOR and TERM=dumb (no color)
// - LOGINCHALLENGE_TUI_THEME (auto|dark|light)
// - LOGINCHALLENGE_TUI_CONTRAST (normal|high)
// - LOGINCHALLENGE_REDUCED_MOTION / REDUCED_MOTION
func ThemeOptionsFromEnv() ThemeOptions {
	opts := DefaultThemeOptions()

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		opts.NoColor = true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		opts.NoColor = true
	}

	switch ThemeMode(strings.ToLower(strings.TrimSpace(os.Getenv("LOGINCHALLENGE_TUI_THEME")))) {
	case ThemeDark:
		opts.Mode = ThemeDark
	case ThemeLight:
		opts.Mode = ThemeLight
	}
	if ThemeContrast(strings.ToLower(strings.TrimSpace(os.Getenv("LOGINCHALLENGE_TUI_CONTRAST")))) == ContrastHigh {
		opts.Contrast = ContrastHigh
	}

	opts.ReducedMotion = reducedMotionFromEnv()
	return opts
}

func reducedMotionFromEnv() bool {
	return envBool("LOGINCHALLENGE_REDUCED_MOTION") || envBool("REDUCED_MOTION") || envBool("REDUCE_MOTION")
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// NewTheme resolves options into a Theme.
func NewTheme(opts ThemeOptions) Theme {
	if opts.Mode == "" {
		opts.Mode = ThemeAuto
	}
	if opts.Contrast == "" {
		opts.Contrast = ContrastNormal
	}

	t := Theme{
		Mode:          opts.Mode,
		Contrast:      opts.Contrast,
		NoColor:       opts.NoColor,
		ReducedMotion: opts.ReducedMotion,
		Border:        lipgloss.RoundedBorder(),
	}

	if opts.NoColor {
		none := lipgloss.NoColor{}
		t.Palette = Palette{none, none, none, none, none, none, none, none}
		t.Border = lipgloss.HiddenBorder()
		return t
	}

	dark := hexPalette{"#bd93f9", "#f8f8f2", "#6272a4", "#ff5555", "#50fa7b", "#44475a", "#282a36", "#bd93f9"}
	light := hexPalette{"#6c3fc5", "#1f1f28", "#5a5f7a", "#c0262d", "#1e7b34", "#e6e6ef", "#ffffff", "#6c3fc5"}
	if opts.Contrast == ContrastHigh {
		dark.text, dark.muted = "#ffffff", "#c0c4e0"
		light.text, light.muted = "#000000", "#30344a"
		t.Border = lipgloss.ThickBorder()
	}

	switch opts.Mode {
	case ThemeDark:
		t.Palette = dark.fixed()
	case ThemeLight:
		t.Palette = light.fixed()
	default:
		t.Palette = adaptive(light, dark)
	}
	return t
}

type hexPalette struct {
	accent, text, muted, danger, success, surface, keycapText, keycapBg string
}

func (h hexPalette) fixed() Palette {
	return Palette{
		Accent:     lipgloss.Color(h.accent),
		Text:       lipgloss.Color(h.text),
		Muted:      lipgloss.Color(h.muted),
		Danger:     lipgloss.Color(h.danger),
		Success:    lipgloss.Color(h.success),
		Surface:    lipgloss.Color(h.surface),
		KeycapText: lipgloss.Color(h.keycapText),
		KeycapBg:   lipgloss.Color(h.keycapBg),
	}
}

func adaptive(light, dark hexPalette) Palette {
	c := func(l, d string) lipgloss.AdaptiveColor { return lipgloss.AdaptiveColor{Light: l, Dark: d} }
	return Palette{
		Accent:     c(light.accent, dark.accent),
		Text:       c(light.text, dark.text),
		Muted:      c(light.muted, dark.muted),
		Danger:     c(light.danger, dark.danger),
		Success:    c(light.success, dark.success),
		Surface:    c(light.surface, dark.surface),
		KeycapText: c(light.keycapText, dark.keycapText),
		KeycapBg:   c(light.keycapBg, dark.keycapBg),
	}
}
