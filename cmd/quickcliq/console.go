package main

import (
	"os"
	"strconv"
	"strings"
)

// consoleCommands print to the terminal and keep it attached.
var consoleCommands = map[string]bool{
	"list":       true,
	"validate":   true,
	"version":    true,
	"help":       true,
	"completion": true,
}

// keepConsole reports whether the console window should stay attached:
// QUICKCLIQ_SHOW_CONSOLE is set, --console is given, or a subcommand runs.
func keepConsole(args []string) bool {
	if os.Getenv("QUICKCLIQ_SHOW_CONSOLE") != "" {
		return true
	}
	if len(args) > 0 && consoleCommands[strings.ToLower(args[0])] {
		return true
	}

	for _, raw := range args {
		trimmed := strings.TrimSpace(raw)
		normalized := strings.ToLower(strings.TrimLeft(trimmed, "-/"))
		switch {
		case normalized == "console":
			return true
		case strings.HasPrefix(normalized, "console="):
			if on, err := strconv.ParseBool(strings.TrimPrefix(normalized, "console=")); err == nil && on {
				return true
			}
		case normalized == "help" || normalized == "h":
			return true
		}
	}
	return false
}
