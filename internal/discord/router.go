package discord

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc is the signature for slash command handlers.
type HandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// ChatHandlerFunc is the signature for prefixed chat command handlers.
// args holds the whitespace-split tokens after the command name.
type ChatHandlerFunc func(s *discordgo.Session, m *discordgo.MessageCreate, args []string)

// ListenerFunc is the signature for passive message listeners. Listeners
// see every non-command message the bot receives, including messages
// from other bots (filtering is up to the listener).
type ListenerFunc func(s *discordgo.Session, m *discordgo.MessageCreate)

// commandEntry stores a slash command definition along with its handler.
type commandEntry struct {
	command *discordgo.ApplicationCommand
	handler HandlerFunc
}

// CommandRouter dispatches Discord interactions and gateway messages to
// registered handlers.
type CommandRouter struct {
	prefix func() string

	mu        sync.RWMutex
	commands  map[string]commandEntry    // slash command name → entry
	chat      map[string]ChatHandlerFunc // chat command name or alias → handler
	listeners []ListenerFunc
}

// NewCommandRouter creates an empty router. prefix returns the current
// chat command prefix; nil disables chat command parsing.
func NewCommandRouter(prefix func() string) *CommandRouter {
	return &CommandRouter{
		prefix:   prefix,
		commands: make(map[string]commandEntry),
		chat:     make(map[string]ChatHandlerFunc),
	}
}

// RegisterCommand registers a handler for a slash command. The cmd
// definition is used when registering commands with Discord.
func (r *CommandRouter) RegisterCommand(name string, cmd *discordgo.ApplicationCommand, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = commandEntry{command: cmd, handler: handler}
}

// RegisterChat registers a handler for a prefixed chat command under
// name and any aliases. Lookups are case-insensitive.
func (r *CommandRouter) RegisterChat(name string, handler ChatHandlerFunc, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat[strings.ToLower(name)] = handler
	for _, alias := range aliases {
		r.chat[strings.ToLower(alias)] = handler
	}
}

// RegisterListener adds a passive listener invoked for every received
// message that is not a chat command.
func (r *CommandRouter) RegisterListener(fn ListenerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// ApplicationCommands returns the list of slash command definitions for
// registration with the Discord API.
func (r *CommandRouter) ApplicationCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cmds []*discordgo.ApplicationCommand
	for _, entry := range r.commands {
		if entry.command != nil {
			cmds = append(cmds, entry.command)
		}
	}
	return cmds
}

// Handle dispatches an interaction to the appropriate handler.
func (r *CommandRouter) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()

		r.mu.RLock()
		entry, ok := r.commands[data.Name]
		r.mu.RUnlock()

		if !ok {
			slog.Warn("discord: unknown command", "name", data.Name)
			RespondEphemeral(s, i, "Unknown command.")
			return
		}
		entry.handler(s, i)

	default:
		slog.Warn("discord: unhandled interaction type", "type", i.Type)
	}
}

// HandleMessage routes a gateway message: the bot's own messages are
// dropped, prefixed messages go to the matching chat command, and
// everything else fans out to the listeners.
func (r *CommandRouter) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	if name, args, ok := r.parseChatCommand(m.Content); ok {
		if m.Author.Bot {
			return
		}

		r.mu.RLock()
		handler, found := r.chat[name]
		r.mu.RUnlock()

		if !found {
			slog.Debug("discord: unknown chat command", "name", name)
			return
		}
		handler(s, m, args)
		return
	}

	r.mu.RLock()
	listeners := make([]ListenerFunc, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(s, m)
	}
}

// parseChatCommand splits content into a command name and arguments if
// it starts with the configured prefix.
func (r *CommandRouter) parseChatCommand(content string) (name string, args []string, ok bool) {
	if r.prefix == nil {
		return "", nil, false
	}
	prefix := r.prefix()
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
