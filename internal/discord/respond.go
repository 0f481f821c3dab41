package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Frenzie/vmt/internal/reply"
)

// HourglassEmoji marks a voice message while its transcription runs.
const HourglassEmoji = "⌛"

// Messenger is the subset of the discordgo session API used to post
// replies and reactions. *discordgo.Session satisfies it; tests use the
// mock subpackage.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
}

var _ Messenger = (*discordgo.Session)(nil)

// ReplyWithPayload posts a formatted transcription payload as a reply
// to msg, attaching the transcript file when present. The reply does
// not ping the original author.
func ReplyWithPayload(m Messenger, msg *discordgo.Message, p reply.Payload) error {
	send := &discordgo.MessageSend{
		Content: p.Content,
		Reference: &discordgo.MessageReference{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID,
			GuildID:   msg.GuildID,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	}
	if p.File != nil {
		send.Files = []*discordgo.File{p.File}
	}
	if _, err := m.ChannelMessageSendComplex(msg.ChannelID, send); err != nil {
		return fmt.Errorf("discord: send reply: %w", err)
	}
	return nil
}

// ReplyText posts a plain text reply to msg.
func ReplyText(m Messenger, msg *discordgo.Message, content string) error {
	return ReplyWithPayload(m, msg, reply.Payload{Content: content})
}

// AddHourglass marks msg with the in-progress reaction. Failures are
// logged, not returned; the reaction is cosmetic.
func AddHourglass(m Messenger, msg *discordgo.Message) {
	if err := m.MessageReactionAdd(msg.ChannelID, msg.ID, HourglassEmoji); err != nil {
		slog.Debug("discord: add hourglass reaction", "message_id", msg.ID, "err", err)
	}
}

// RemoveHourglass clears the in-progress reaction set by the bot.
func RemoveHourglass(m Messenger, msg *discordgo.Message, botUserID string) {
	if err := m.MessageReactionRemove(msg.ChannelID, msg.ID, HourglassEmoji, botUserID); err != nil {
		slog.Debug("discord: remove hourglass reaction", "message_id", msg.ID, "err", err)
	}
}

// RespondEphemeral sends an ephemeral text response to an interaction.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to send ephemeral response", "err", err)
	}
}

// RespondEmbed sends an ephemeral embed response to an interaction.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord: failed to send embed response", "err", err)
	}
}

// DeferReply sends a deferred "thinking" response for long-running
// commands.
func DeferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		slog.Warn("discord: failed to defer reply", "err", err)
	}
}

// FollowUp sends a follow-up message after a deferred response.
func FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		slog.Warn("discord: failed to send follow-up", "err", err)
	}
}

// FollowUpEphemeral sends a follow-up visible only to the invoking
// user.
func FollowUpEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Warn("discord: failed to send follow-up", "err", err)
	}
}

// FollowUpPayload sends a formatted transcription payload as a
// follow-up, used when replying to the source message is not permitted.
func FollowUpPayload(s *discordgo.Session, i *discordgo.InteractionCreate, p reply.Payload) error {
	params := &discordgo.WebhookParams{Content: p.Content}
	if p.File != nil {
		params.Files = []*discordgo.File{p.File}
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		return fmt.Errorf("discord: send payload follow-up: %w", err)
	}
	return nil
}
