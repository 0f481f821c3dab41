// Package mock provides test doubles for the Discord message API.
package mock

import "github.com/bwmarrin/discordgo"

// SentMessage records one ChannelMessageSendComplex call.
type SentMessage struct {
	ChannelID string
	Data      *discordgo.MessageSend
}

// ReactionCall records one reaction add or remove call.
type ReactionCall struct {
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string // empty for adds
}

// Messenger records message sends and reactions for test assertions.
// It satisfies the discord.Messenger interface.
type Messenger struct {
	// Sent records all ChannelMessageSendComplex calls.
	Sent []SentMessage

	// ReactionsAdded and ReactionsRemoved record reaction calls.
	ReactionsAdded   []ReactionCall
	ReactionsRemoved []ReactionCall

	// SendErr, when non-nil, is returned by ChannelMessageSendComplex.
	SendErr error

	// ReactionErr, when non-nil, is returned by the reaction methods.
	ReactionErr error
}

// ChannelMessageSendComplex records the send and returns a stub message.
func (m *Messenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Data: data})
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	return &discordgo.Message{ID: "mock-sent"}, nil
}

// MessageReactionAdd records the reaction and returns the configured error.
func (m *Messenger) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	m.ReactionsAdded = append(m.ReactionsAdded, ReactionCall{ChannelID: channelID, MessageID: messageID, Emoji: emojiID})
	return m.ReactionErr
}

// MessageReactionRemove records the removal and returns the configured error.
func (m *Messenger) MessageReactionRemove(channelID, messageID, emojiID, userID string, _ ...discordgo.RequestOption) error {
	m.ReactionsRemoved = append(m.ReactionsRemoved, ReactionCall{ChannelID: channelID, MessageID: messageID, Emoji: emojiID, UserID: userID})
	return m.ReactionErr
}

// LastSent returns the most recently recorded send, or nil.
func (m *Messenger) LastSent() *SentMessage {
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}

// Reset clears all recorded calls and errors.
func (m *Messenger) Reset() {
	m.Sent = nil
	m.ReactionsAdded = nil
	m.ReactionsRemoved = nil
	m.SendErr = nil
	m.ReactionErr = nil
}
