package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/Frenzie/vmt/internal/voicenote"
)

// SessionHistory adapts a discordgo session to the voicenote history
// interface used for channel scans.
type SessionHistory struct {
	Session *discordgo.Session
}

var _ voicenote.History = (*SessionHistory)(nil)

// ChannelMessages fetches up to limit messages older than beforeID,
// newest first.
func (h *SessionHistory) ChannelMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	return h.Session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
}
