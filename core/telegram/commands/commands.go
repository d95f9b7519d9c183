package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its menu description. Hidden commands
// stay out of the command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}
