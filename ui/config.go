package ui

// Config contains TUI-specific configuration.
type Config struct {
	GlamourStyle string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	// GlamourMaxWidth caps the rendered help width; zero follows the window.
	GlamourMaxWidth uint

	// For debugging the UI
	NoAltScreen bool `env:"HERALD_NO_ALT_SCREEN"`
}
