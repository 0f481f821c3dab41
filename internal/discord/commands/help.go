package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Frenzie/vmt/internal/discord"
)

// embedSender is the subset of the session API used to post the help
// embed. *discordgo.Session satisfies it.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ embedSender = (*discordgo.Session)(nil)

// helpColor is the embed sidebar color for the help embed.
const helpColor = 0x3498DB

// HelpCommands serves the usage summary as a chat and slash command.
type HelpCommands struct {
	prefix func() string
}

// HelpConfig holds dependencies for creating HelpCommands.
type HelpConfig struct {
	Router *discord.CommandRouter

	// Prefix returns the current chat command prefix, shown in the
	// usage examples.
	Prefix func() string
}

// NewHelpCommands creates a HelpCommands and registers its handlers
// with the router.
func NewHelpCommands(cfg HelpConfig) *HelpCommands {
	hc := &HelpCommands{prefix: cfg.Prefix}
	if hc.prefix == nil {
		hc.prefix = func() string { return "vmt " }
	}

	cfg.Router.RegisterChat("help", hc.handleChat, "h")
	cfg.Router.RegisterCommand("help", &discordgo.ApplicationCommand{
		Name:        "help",
		Description: "Show how to use the transcription bot",
	}, hc.handleSlash)
	return hc
}

func (hc *HelpCommands) handleChat(s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	hc.sendEmbed(s, m.ChannelID)
}

func (hc *HelpCommands) sendEmbed(s embedSender, channelID string) {
	if _, err := s.ChannelMessageSendEmbed(channelID, hc.embed()); err != nil {
		slog.Warn("discord: failed to send help embed", "channel_id", channelID, "err", err)
	}
}

func (hc *HelpCommands) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	discord.RespondEmbed(s, i, hc.embed())
}

func (hc *HelpCommands) embed() *discordgo.MessageEmbed {
	p := hc.prefix()
	return &discordgo.MessageEmbed{
		Title: "Voice Message Transcription",
		Description: "I transcribe Discord voice messages. Post one and I reply with " +
			"the text, or ask me explicitly:",
		Color: helpColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Chat commands",
				Value: fmt.Sprintf("`%stranscribe` — transcribe the replied-to voice message, "+
					"or the newest one in this channel\n"+
					"`%stranscribe <lang>` — also translate (see `%slanguages`)\n"+
					"`%shelp` — this message", p, p, p, p),
			},
			{
				Name: "Slash commands",
				Value: "`/transcribe [message] [language]` — transcribe by message link/ID\n" +
					"`/languages` — list translation targets\n" +
					"`/help` — this message",
			},
			{
				Name:  "While I work",
				Value: fmt.Sprintf("I react with %s on the voice message until the transcription is posted.", discord.HourglassEmoji),
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Long transcripts are attached as a text file"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
