package lib

import (
	"github.com/fatih/color"
)

var (
	labelColor = color.New(color.FgBlue)
	redText    = color.New(color.FgRed, color.Bold)
	yellowText = color.New(color.FgYellow)
	greenText  = color.New(color.FgGreen)
)

// Label renders a field label for pretty output.
func Label(text string) string {
	return labelColor.Sprint(text)
}

// ColorizeStatus colours a result status: Vulnerable red, Error yellow, Safe green.
// Colouring follows color.NoColor, which is set when stdout is not a terminal.
func ColorizeStatus(status string) string {
	switch status {
	case "Vulnerable":
		return redText.Sprint(status)
	case "Error":
		return yellowText.Sprint(status)
	case "Safe":
		return greenText.Sprint(status)
	default:
		return status
	}
}

// DisableColors turns off colour output globally.
func DisableColors() {
	color.NoColor = true
}
