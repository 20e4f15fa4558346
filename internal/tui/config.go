package tui

import (
	"context"
	"io"

	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Input        io.Reader
	Output       io.Writer
	Search       Searcher
	Theme        themes.Theme
	Request      engine.Request
	Width        int
	Height       int
	AltScreen    bool
	MouseSupport bool
	ShowHelp     bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Width:        100,
		Height:       30,
		AltScreen:    true,
		MouseSupport: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAltScreen controls whether the browser takes over the whole terminal.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}

// WithMouse enables mouse wheel scrolling.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}

// WithFullHelp starts with the full key help expanded.
func WithFullHelp() Option {
	return func(c *Config) {
		c.ShowHelp = true
	}
}

// Searcher re-runs an equivalency search.
type Searcher func(ctx context.Context, req engine.Request) (engine.Response, error)

// WithSearcher lets the browser re-run req, for example to toggle
// same-supplier matching.
func WithSearcher(req engine.Request, search Searcher) Option {
	return func(c *Config) {
		c.Request = req
		c.Search = search
	}
}

// WithIO sets the terminal input and output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Config) {
		c.Input = in
		c.Output = out
	}
}
