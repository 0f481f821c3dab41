// Package voicenote decides whether Discord messages carry voice-note
// attachments and locates the voice note a command invocation refers
// to, either from an explicit reply target or by a bounded scan of
// recent channel history.
package voicenote

import "github.com/bwmarrin/discordgo"

// voiceMessageFlagShift is the bit position Discord uses to mark a
// message as a voice recording (IS_VOICE_MESSAGE). The check shifts
// rather than masks, so any set bit at or above this position
// qualifies. Keep it that way.
const voiceMessageFlagShift = 13

// IsVoiceNote reports whether msg is a Discord voice message: it must
// carry at least one attachment and have the voice-message flag bit
// set. Pure and total — nil messages and zero-value fields are fine.
func IsVoiceNote(msg *discordgo.Message) bool {
	if msg == nil {
		return false
	}
	if len(msg.Attachments) == 0 {
		return false
	}
	return int(msg.Flags)>>voiceMessageFlagShift != 0
}
