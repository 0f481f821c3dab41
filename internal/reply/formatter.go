// Package reply renders transcription outcomes into Discord reply
// payloads: a quote-block preview with source metadata and, for long
// transcripts, a full-text file attachment.
package reply

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	// previewLimit is the longest transcript rendered inline in full.
	previewLimit = 600

	// fileThreshold is the transcript length above which the full text
	// is also attached as a file.
	fileThreshold = 900

	// maxSlugLen bounds the author slug used in attachment filenames.
	maxSlugLen = 32

	// EmptyPlaceholder stands in for a transcript with no speech.
	EmptyPlaceholder = "(empty transcription)"
)

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Payload is a ready-to-send Discord reply.
type Payload struct {
	Content string

	// File carries the full transcript when it exceeds the inline
	// limits. Nil for short transcripts.
	File *discordgo.File
}

// Build renders text as a reply to msg. requester, when non-nil, is
// credited in the header (set for command- and slash-triggered
// transcriptions, nil for automatic ones). Empty text renders the
// fixed placeholder.
func Build(text string, msg *discordgo.Message, requester *discordgo.User) Payload {
	fullText := strings.TrimSpace(text)
	if fullText == "" {
		fullText = EmptyPlaceholder
	}

	runes := []rune(fullText)
	truncated := len(runes) > previewLimit
	preview := fullText
	if truncated {
		preview = trimPreview(runes)
	}

	header := fmt.Sprintf("Transcription of %s's voice message | msg %s | %s",
		authorName(msg), msg.ID, msg.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	if requester != nil {
		header += " | requested by " + requester.Username
	}

	attach := truncated || len(runes) > fileThreshold

	footer := "> (end)"
	if attach {
		footer = "> (full transcript attached as file)"
	}

	content := fmt.Sprintf("> **%s**\n> Source: %s\n%s\n%s",
		header, jumpURL(msg), quoteBlock(preview), footer)

	var file *discordgo.File
	if attach {
		file = &discordgo.File{
			Name:        attachmentName(msg),
			ContentType: "text/plain",
			Reader:      bytes.NewReader([]byte(fullText)),
		}
	}
	return Payload{Content: content, File: file}
}

// Failed is the fixed message posted when transcription of an
// automatically detected voice message fails.
func Failed(msg *discordgo.Message) string {
	return fmt.Sprintf("Could not transcribe the Voice Message from %s.", authorName(msg))
}

// RequestFailed is the fixed message sent to a requester when their
// explicitly requested transcription fails.
func RequestFailed(msg *discordgo.Message) string {
	return fmt.Sprintf("Failed to transcribe VM from %s.", authorName(msg))
}

// trimPreview cuts the preview at the limit, backing up to the last
// line break when one falls near the end so lines are not split
// mid-sentence.
func trimPreview(runes []rune) string {
	preview := string(runes[:previewLimit])
	tail := preview
	if len(preview) > 120 {
		tail = preview[len(preview)-120:]
	}
	if strings.Contains(tail, "\n") {
		if cut := strings.LastIndex(preview, "\n"); cut > 0 && cut > previewLimit-200 {
			preview = preview[:cut]
		}
	}
	return preview + "\n... (truncated)"
}

// quoteBlock prefixes every line with "> ", keeping blank lines as
// bare ">" so Discord renders one continuous quote.
func quoteBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// attachmentName composes the transcript filename from the author
// slug, message timestamp, and message ID.
func attachmentName(msg *discordgo.Message) string {
	slug := slugPattern.ReplaceAllString(authorName(msg), "_")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" && msg.Author != nil {
		slug = msg.Author.ID
	}
	return fmt.Sprintf("vm_%s_%s_%s.txt", slug, msg.Timestamp.UTC().Format("20060102-150405"), msg.ID)
}

// jumpURL builds the canonical link to msg. DM messages use "@me" in
// place of a guild ID.
func jumpURL(msg *discordgo.Message) string {
	guild := msg.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, msg.ChannelID, msg.ID)
}

func authorName(msg *discordgo.Message) string {
	if msg == nil || msg.Author == nil {
		return "unknown"
	}
	if msg.Author.Username != "" {
		return msg.Author.Username
	}
	return msg.Author.ID
}
