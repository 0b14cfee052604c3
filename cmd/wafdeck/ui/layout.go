// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for panel sizing
const (
	// Chrome rows around the active page
	HeaderHeight = 1
	TabBarHeight = 2
	FooterHeight = 1

	// Panel borders and spacing
	PanelBorderWidth = 2
	PanelPaddingH    = 1
	ContentIndent    = 2

	// Dashboard split
	FeedRatio = 0.55

	// Responsive breakpoints
	MinimumTerminalWidth = 80
	CompactModeWidth     = 100

	// Feed and log sizing
	MaxFeedRows = 30
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// PageHeight returns the rows available to the active page
func (l LayoutConfig) PageHeight() int {
	h := l.TerminalHeight - HeaderHeight - TabBarHeight - FooterHeight
	if h < 0 {
		return 0
	}
	return h
}

// SplitWidths calculates the feed and sidebar widths for the dashboard
func SplitWidths(totalWidth int) (feedWidth, sideWidth int) {
	feedWidth = int(float64(totalWidth) * FeedRatio)
	sideWidth = totalWidth - feedWidth - 1
	return
}

// PanelContentWidth returns the content width inside a bordered panel
func PanelContentWidth(panelWidth int) int {
	w := panelWidth - PanelBorderWidth - (PanelPaddingH * 2)
	if w < 0 {
		return 0
	}
	return w
}
