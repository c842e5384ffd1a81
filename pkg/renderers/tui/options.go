package tui

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-formgrid/pkg/console"
)

// Theme captures optional message prefixes the console applies when printing
// notices. Keep minimal to avoid coupling console logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	WarnPrefix  string
	ErrorPrefix string
}

// DefaultTheme returns the prefixes used when no theme is supplied.
func DefaultTheme() Theme {
	return Theme{InfoPrefix: "✓ ", WarnPrefix: "! ", ErrorPrefix: "✗ "}
}

// Option configures the Console.
type Option func(*Console)

// WithPromptDriver overrides the prompt driver used by the console.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *Console) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutput sets where grids and notices are written (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(c *Console) {
		if w != nil {
			c.out = w
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *Console) {
		c.theme = theme
	}
}

// WithLogger sets the console logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithColumnWidth caps the width of grid cells.
func WithColumnWidth(width int) Option {
	return func(c *Console) {
		if width > 0 {
			c.columnWidth = width
		}
	}
}

// WithFeed adds a recent-activity entry to the dashboard menu.
func WithFeed(feed *console.Feed) Option {
	return func(c *Console) { c.feed = feed }
}
