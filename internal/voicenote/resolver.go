package voicenote

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DefaultScanLimit bounds how many recent messages the resolver
// inspects when no reply target is given.
const DefaultScanLimit = 50

// historyPageSize is the per-request fetch size. Discord caps history
// reads at 100 messages per call.
const historyPageSize = 100

var (
	// ErrReplyNotVoiceNote is returned when the invocation replied to a
	// concrete message that is not a usable voice note. Distinct from
	// ErrNoVoiceNote so the user learns their explicit target was
	// rejected rather than simply "nothing found".
	ErrReplyNotVoiceNote = errors.New("voicenote: replied message is not a voice message")

	// ErrNoVoiceNote is returned when the bounded history scan finds no
	// qualifying message.
	ErrNoVoiceNote = errors.New("voicenote: no voice message found")
)

// History is the capability the resolver needs from the platform: a
// newest-first page of channel messages strictly older than beforeID
// (all newest when beforeID is empty). *discordgo.Session satisfies a
// thin adapter of this; tests supply fakes.
type History interface {
	ChannelMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error)
}

// Resolver locates the voice note a command invocation targets.
type Resolver struct {
	// BotUserID is the bot's own user ID; its messages never qualify.
	BotUserID string

	// History provides paginated channel reads.
	History History

	// ScanLimit bounds the backward scan. Zero means DefaultScanLimit.
	ScanLimit int
}

// Target describes one invocation's inputs to Resolve.
type Target struct {
	// ChannelID is the channel the command was issued in.
	ChannelID string

	// Reply is the message the invoking command replied to, if any.
	Reply *discordgo.Message
}

// Resolve returns the voice note the invocation refers to.
//
// When a reply target is present it is authoritative: it is returned if
// it qualifies, and ErrReplyNotVoiceNote is returned otherwise — the
// resolver never falls through to a history scan past an explicit
// target, so the user is told their chosen message was rejected.
//
// Without a reply target, history is scanned newest→oldest up to
// ScanLimit messages, returning the first voice note not authored by
// the bot, or ErrNoVoiceNote when the bound is exhausted.
func (r *Resolver) Resolve(ctx context.Context, target Target) (*discordgo.Message, error) {
	if target.Reply != nil {
		if IsVoiceNote(target.Reply) && !r.ownMessage(target.Reply) {
			return target.Reply, nil
		}
		return nil, ErrReplyNotVoiceNote
	}

	limit := r.ScanLimit
	if limit <= 0 {
		limit = DefaultScanLimit
	}

	var (
		seen     int
		beforeID string
	)
	for seen < limit {
		page := min(limit-seen, historyPageSize)
		msgs, err := r.History.ChannelMessages(ctx, target.ChannelID, page, beforeID)
		if err != nil {
			return nil, fmt.Errorf("voicenote: fetch history: %w", err)
		}
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			if seen >= limit {
				break
			}
			seen++
			if IsVoiceNote(m) && !r.ownMessage(m) {
				return m, nil
			}
		}
		beforeID = msgs[len(msgs)-1].ID
	}
	return nil, ErrNoVoiceNote
}

func (r *Resolver) ownMessage(m *discordgo.Message) bool {
	return m.Author != nil && m.Author.ID == r.BotUserID
}
