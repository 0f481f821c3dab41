package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Frenzie/vmt/internal/discord"
	"github.com/Frenzie/vmt/internal/observe"
	"github.com/Frenzie/vmt/internal/reply"
	"github.com/Frenzie/vmt/internal/transcribe"
	"github.com/Frenzie/vmt/internal/voicenote"
)

// transcribeTimeout bounds one end-to-end transcription, download and
// engine time included.
const transcribeTimeout = 5 * time.Minute

// messageLinkPattern matches Discord message links across the official
// client domains.
var messageLinkPattern = regexp.MustCompile(`^https://(?:ptb\.|canary\.)?discord(?:app)?\.com/channels/(\d+)/(\d+)/(\d+)$`)

var messageIDPattern = regexp.MustCompile(`^\d+$`)

// contextMenuName is the label of the message context menu entry.
const contextMenuName = "Transcribe Voice Message"

// followUpReporter routes the outcome of a deferred interaction back to
// the invoker: a confirmation on success, an ephemeral failure notice,
// and the transcript itself when replying in the channel is not
// permitted.
type followUpReporter struct {
	confirm func()
	failure func()
	payload func(p reply.Payload) error
}

// MessageFetcher fetches single messages by ID. *discordgo.Session
// satisfies it.
type MessageFetcher interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ MessageFetcher = (*discordgo.Session)(nil)

// TranscribeCommands handles the transcribe chat command, the
// /transcribe slash command, and automatic transcription of incoming
// voice messages.
type TranscribeCommands struct {
	svc         *transcribe.Service
	resolver    *voicenote.Resolver
	languages   func() map[string]string
	autoEnabled func() bool
	botUserID   func() string
}

// TranscribeConfig holds dependencies for creating TranscribeCommands.
type TranscribeConfig struct {
	Router   *discord.CommandRouter
	Service  *transcribe.Service
	Resolver *voicenote.Resolver

	// Languages returns the active translation target map. Optional;
	// defaults to [DefaultLanguages].
	Languages func() map[string]string

	// AutoEnabled reports whether incoming voice messages are
	// transcribed without being asked. Optional; defaults to true.
	AutoEnabled func() bool

	// BotUserID returns the connected bot user's ID, used to clear the
	// bot's own progress reaction.
	BotUserID func() string
}

// NewTranscribeCommands creates a TranscribeCommands and registers its
// handlers and the voice message listener with the router.
func NewTranscribeCommands(cfg TranscribeConfig) *TranscribeCommands {
	tc := &TranscribeCommands{
		svc:         cfg.Service,
		resolver:    cfg.Resolver,
		languages:   cfg.Languages,
		autoEnabled: cfg.AutoEnabled,
		botUserID:   cfg.BotUserID,
	}
	if tc.languages == nil {
		tc.languages = func() map[string]string { return DefaultLanguages }
	}
	if tc.autoEnabled == nil {
		tc.autoEnabled = func() bool { return true }
	}
	if tc.botUserID == nil {
		tc.botUserID = func() string { return "" }
	}

	cfg.Router.RegisterChat("transcribe", tc.handleChat, "t", "vmt")
	cfg.Router.RegisterCommand(contextMenuName, &discordgo.ApplicationCommand{
		Name: contextMenuName,
		Type: discordgo.MessageApplicationCommand,
	}, tc.handleContextMenu)
	cfg.Router.RegisterCommand("transcribe", &discordgo.ApplicationCommand{
		Name:        "transcribe",
		Description: "Transcribe a Discord voice message",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Message link or ID of the voice message",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "language",
				Description: "Translate the transcript into this language code",
			},
		},
	}, tc.handleSlash)
	cfg.Router.RegisterListener(tc.autoTranscribe)
	return tc
}

// handleChat handles "<prefix>transcribe [language]". The voice message
// is taken from the reply target when the command message is a reply,
// otherwise from a recent-history scan.
func (tc *TranscribeCommands) handleChat(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	lang := ""
	if len(args) > 0 {
		code, ok, suggestion := NormalizeLanguage(args[0], tc.languages())
		if !ok {
			text := fmt.Sprintf("Unknown language %q.", args[0])
			if suggestion != "" {
				text += fmt.Sprintf(" Did you mean `%s`?", suggestion)
			}
			replyOrLog(s, m.Message, text)
			return
		}
		lang = code
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	target, err := tc.resolver.Resolve(ctx, voicenote.Target{
		ChannelID: m.ChannelID,
		Reply:     m.ReferencedMessage,
	})
	cancel()
	if err != nil {
		recordResolutionFailure(err)
		replyOrLog(s, m.Message, resolutionErrorText(err))
		return
	}

	go tc.transcribeAndReply(s, target, lang, "command", m.Author, nil)
}

// handleSlash handles /transcribe [message] [language].
func (tc *TranscribeCommands) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var rawTarget, rawLang string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "message":
			rawTarget = opt.StringValue()
		case "language":
			rawLang = opt.StringValue()
		}
	}

	lang := ""
	if rawLang != "" {
		code, ok, suggestion := NormalizeLanguage(rawLang, tc.languages())
		if !ok {
			text := fmt.Sprintf("Unknown language %q.", rawLang)
			if suggestion != "" {
				text += fmt.Sprintf(" Did you mean `%s`?", suggestion)
			}
			discord.RespondEphemeral(s, i, text)
			return
		}
		lang = code
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var target *discordgo.Message
	if rawTarget != "" {
		msg, problem := tc.fetchNamedTarget(ctx, s, i, rawTarget)
		if problem != "" {
			discord.RespondEphemeral(s, i, problem)
			return
		}
		if !voicenote.IsVoiceNote(msg) {
			discord.RespondEphemeral(s, i, "Provided message is not a voice message.")
			return
		}
		target = msg
	} else {
		msg, err := tc.resolver.Resolve(ctx, voicenote.Target{ChannelID: i.ChannelID})
		if err != nil {
			recordResolutionFailure(err)
			discord.RespondEphemeral(s, i, resolutionErrorText(err))
			return
		}
		target = msg
	}

	discord.DeferReply(s, i)

	go tc.transcribeAndReply(s, target, lang, "slash", interactionUser(i), &followUpReporter{
		confirm: func() { discord.FollowUp(s, i, "Transcription posted.") },
		failure: func() { discord.FollowUpEphemeral(s, i, reply.RequestFailed(target)) },
		payload: func(p reply.Payload) error { return discord.FollowUpPayload(s, i, p) },
	})
}

// handleContextMenu handles the message context menu entry. The target
// comes pre-resolved with the interaction, so there is no link parsing
// or history scan.
func (tc *TranscribeCommands) handleContextMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target, problem := contextMenuTarget(i)
	if problem != "" {
		discord.RespondEphemeral(s, i, problem)
		return
	}

	discord.DeferReply(s, i)

	go tc.transcribeAndReply(s, target, "", "context", interactionUser(i), &followUpReporter{
		confirm: func() { discord.FollowUp(s, i, "Transcription posted under the original voice message.") },
		failure: func() { discord.FollowUpEphemeral(s, i, "Failed to transcribe that voice message.") },
		payload: func(p reply.Payload) error { return discord.FollowUpPayload(s, i, p) },
	})
}

// contextMenuTarget extracts the resolved message a context menu
// invocation points at. Resolved messages can arrive without a guild
// ID, which the jump URL in the reply needs, so it is backfilled from
// the interaction.
func contextMenuTarget(i *discordgo.InteractionCreate) (msg *discordgo.Message, problem string) {
	data := i.ApplicationCommandData()
	if data.Resolved == nil {
		return nil, "Could not resolve the selected message."
	}
	msg, ok := data.Resolved.Messages[data.TargetID]
	if !ok || msg == nil {
		return nil, "Could not resolve the selected message."
	}
	if !voicenote.IsVoiceNote(msg) {
		return nil, "Selected message is not a Discord voice message."
	}
	if msg.GuildID == "" {
		msg.GuildID = i.GuildID
	}
	return msg, ""
}

// interactionUser returns the invoking user for guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// fetchNamedTarget resolves a message link or bare ID passed to the
// slash command. Links must point into the invoking guild. On failure
// it returns user-facing guidance in problem.
func (tc *TranscribeCommands) fetchNamedTarget(ctx context.Context, f MessageFetcher, i *discordgo.InteractionCreate, raw string) (msg *discordgo.Message, problem string) {
	if m := messageLinkPattern.FindStringSubmatch(raw); m != nil {
		guildID, channelID, messageID := m[1], m[2], m[3]
		if i.GuildID != "" && i.GuildID != guildID {
			return nil, "That message link points to a different server."
		}
		msg, err := f.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, "Could not fetch that message. Check the link and my permissions."
		}
		return msg, ""
	}

	if messageIDPattern.MatchString(raw) {
		msg, err := f.ChannelMessage(i.ChannelID, raw, discordgo.WithContext(ctx))
		if err != nil {
			return nil, "Could not fetch that message ID in this channel."
		}
		return msg, ""
	}

	return nil, "Pass a message link or a numeric message ID."
}

// autoTranscribe is the passive listener that transcribes every voice
// message the bot sees.
func (tc *TranscribeCommands) autoTranscribe(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !tc.autoEnabled() {
		return
	}
	if m.Author != nil && m.Author.Bot {
		return
	}
	if !voicenote.IsVoiceNote(m.Message) {
		return
	}
	go tc.transcribeAndReply(s, m.Message, "", "auto", nil, nil)
}

// transcribeAndReply runs one transcription end to end and posts the
// result as a reply to the voice message. It blocks and is meant to be
// called from a background goroutine by the event handlers. A non-nil
// followUp takes over delivery for deferred interactions: failures go
// to the invoker instead of the channel, a confirmation follows a
// posted reply, and a rejected channel reply falls back to posting the
// transcript through the interaction itself.
func (tc *TranscribeCommands) transcribeAndReply(m discord.Messenger, target *discordgo.Message, lang, trigger string, requester *discordgo.User, followUp *followUpReporter) {
	discord.AddHourglass(m, target)
	defer discord.RemoveHourglass(m, target, tc.botUserID())

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	outcome, err := tc.svc.Transcribe(ctx, target, lang, trigger)
	if err != nil {
		slog.Error("transcription failed",
			"message_id", target.ID, "channel_id", target.ChannelID, "trigger", trigger, "err", err)
		if followUp != nil {
			followUp.failure()
			return
		}
		failure := reply.Failed(target)
		if requester != nil {
			failure = reply.RequestFailed(target)
		}
		replyOrLog(m, target, failure)
		return
	}

	payload := reply.Build(outcome.Text, target, requester)
	if err := discord.ReplyWithPayload(m, target, payload); err != nil {
		if followUp != nil {
			if ferr := followUp.payload(payload); ferr == nil {
				return
			}
		}
		slog.Error("failed to post transcription", "message_id", target.ID, "err", err)
		return
	}
	if followUp != nil {
		followUp.confirm()
	}
}

func recordResolutionFailure(err error) {
	reason := "history_error"
	switch {
	case errors.Is(err, voicenote.ErrReplyNotVoiceNote):
		reason = "reply_rejected"
	case errors.Is(err, voicenote.ErrNoVoiceNote):
		reason = "history_exhausted"
	}
	observe.Default().ResolutionFailures.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// resolutionErrorText maps resolver errors to user-facing guidance.
func resolutionErrorText(err error) string {
	switch {
	case errors.Is(err, voicenote.ErrReplyNotVoiceNote):
		return "The replied-to message is not a voice message."
	case errors.Is(err, voicenote.ErrNoVoiceNote):
		return "No voice message found. Reply to one, or provide a message link/ID."
	default:
		return "Could not search this channel for voice messages. Do I have 'Read Message History'?"
	}
}

func replyOrLog(m discord.Messenger, msg *discordgo.Message, content string) {
	if err := discord.ReplyText(m, msg, content); err != nil {
		slog.Warn("discord: failed to send reply", "message_id", msg.ID, "err", err)
	}
}
