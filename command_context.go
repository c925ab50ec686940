package main

import (
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command is the interface that all bot commands must implement
type Command interface {
	Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, args string)
	Description() string
}

// CommandRegistry holds the map of commands
type CommandRegistry struct {
	commands map[string]Command
	hidden   map[string]bool
}

// NewCommandRegistry creates a new registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
		hidden:   make(map[string]bool),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(name string, cmd Command) {
	r.commands[name] = cmd
}

// RegisterAlias adds a command that is not listed by Names.
func (r *CommandRegistry) RegisterAlias(name string, cmd Command) {
	r.commands[name] = cmd
	r.hidden[name] = true
}

// Names lists the registered commands, aliases excluded, sorted.
func (r *CommandRegistry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		if !r.hidden[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Execute runs a command if found
func (r *CommandRegistry) Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message) bool {
	if msg == nil {
		return false
	}
	cmdName := msg.Command()
	if cmdName == "" {
		return false
	}
	if cmd, ok := r.commands[cmdName]; ok {
		cmd.Execute(ctx, bot, msg, msg.CommandArguments())
		return true
	}
	return false
}
