// Package format holds terminal output helpers shared by labnet commands.
package format

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

var (
	SuccessColor = color.New(color.FgGreen, color.Bold)
	WarningColor = color.New(color.FgYellow, color.Bold)
	ErrorColor   = color.New(color.FgRed, color.Bold)
	HeadingColor = color.New(color.FgHiWhite, color.Bold)
	LabelColor   = color.New(color.FgCyan, color.Bold)
	DimColor     = color.New(color.FgHiBlack)
)

func init() {
	enable := term.IsTerminal(int(os.Stdout.Fd()))
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		enable = false
	}
	if _, ok := os.LookupEnv("LABNET_NO_COLOR"); ok {
		enable = false
	}
	if _, ok := os.LookupEnv("LABNET_FORCE_COLOR"); ok {
		enable = true
	}
	EnableColor(enable)
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	color.NoColor = !enable
	if enable {
		pterm.EnableColor()
	} else {
		pterm.DisableColor()
	}
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return !color.NoColor
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string {
	return SuccessColor.Sprintf(format, a...)
}

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string {
	return WarningColor.Sprintf(format, a...)
}

// Error formats a message as an error (red)
func Error(format string, a ...interface{}) string {
	return ErrorColor.Sprintf(format, a...)
}

// Header formats a message as a header
func Header(format string, a ...interface{}) string {
	return HeadingColor.Sprintf(format, a...)
}

// Dim formats a message as dimmed
func Dim(format string, a ...interface{}) string {
	return DimColor.Sprintf(format, a...)
}

// StatusSymbol returns a colorized status symbol
func StatusSymbol(success bool) string {
	if success {
		return SuccessColor.Sprint("✓")
	}
	return ErrorColor.Sprint("✗")
}

// Label formats a key and value with a label style
func Label(key, value string) string {
	return fmt.Sprintf("%s %s", LabelColor.Sprint(key+":"), value)
}

// Bool renders a flag as yes/no, highlighting yes.
func Bool(b bool) string {
	if b {
		return SuccessColor.Sprint("yes")
	}
	return "no"
}
