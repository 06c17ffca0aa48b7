package tui

// Color constants for the punch TUI theme
const (
	ColorCardBackground = "#1B1530" // Dark purple
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240"

	// Accents
	ColorAccentMain   = "#7C3AED"
	ColorAccentBright = "#A78BFA"

	// State
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E" // checked in
	ColorWarning = "#F59E0B"
)
