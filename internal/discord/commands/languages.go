// Package commands implements the vmt chat and slash commands: voice
// message transcription, the language listing, and help.
package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/bwmarrin/discordgo"

	"github.com/Frenzie/vmt/internal/discord"
)

// languagesColor is the embed sidebar color for the languages embed.
const languagesColor = 0x2ECC71

// suggestionThreshold is the minimum Jaro-Winkler similarity for a
// near-match language suggestion.
const suggestionThreshold = 0.78

// DefaultLanguages maps translation target codes to display names. A
// config languages block replaces this set entirely.
var DefaultLanguages = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"ru": "Russian",
	"uk": "Ukrainian",
	"tr": "Turkish",
	"ar": "Arabic",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
}

// NormalizeLanguage resolves raw user input to a language code from
// langs. It accepts codes ("de") and display names ("german") in any
// case. When no exact match exists, suggestion carries the closest
// code by Jaro-Winkler similarity, or "" when nothing is close.
func NormalizeLanguage(raw string, langs map[string]string) (code string, ok bool, suggestion string) {
	input := strings.ToLower(strings.TrimSpace(raw))
	if input == "" {
		return "", false, ""
	}

	for c, name := range langs {
		if input == strings.ToLower(c) || input == strings.ToLower(name) {
			return c, true, ""
		}
	}

	best := ""
	bestScore := suggestionThreshold
	for c, name := range langs {
		for _, candidate := range []string{c, name} {
			score := matchr.JaroWinkler(input, strings.ToLower(candidate), false)
			if score > bestScore {
				bestScore = score
				best = c
			}
		}
	}
	return "", false, best
}

// LanguagesCommands serves the language listing as a chat and slash
// command.
type LanguagesCommands struct {
	languages func() map[string]string
}

// LanguagesConfig holds dependencies for creating LanguagesCommands.
type LanguagesConfig struct {
	Router *discord.CommandRouter

	// Languages returns the active code-to-name map. Called per
	// invocation so config reloads take effect.
	Languages func() map[string]string
}

// NewLanguagesCommands creates a LanguagesCommands and registers its
// handlers with the router.
func NewLanguagesCommands(cfg LanguagesConfig) *LanguagesCommands {
	lc := &LanguagesCommands{languages: cfg.Languages}
	if lc.languages == nil {
		lc.languages = func() map[string]string { return DefaultLanguages }
	}

	cfg.Router.RegisterChat("languages", lc.handleChat, "langcodes", "lc")
	cfg.Router.RegisterCommand("languages", &discordgo.ApplicationCommand{
		Name:        "languages",
		Description: "List the translation target languages",
	}, lc.handleSlash)
	return lc
}

func (lc *LanguagesCommands) handleChat(s *discordgo.Session, m *discordgo.MessageCreate, _ []string) {
	replyOrLog(s, m.Message, lc.listing())
}

func (lc *LanguagesCommands) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	discord.RespondEmbed(s, i, lc.embed())
}

// listing renders the languages as plain text for chat replies.
func (lc *LanguagesCommands) listing() string {
	var sb strings.Builder
	sb.WriteString("Available translation targets:\n")
	for _, code := range sortedCodes(lc.languages()) {
		fmt.Fprintf(&sb, "`%s` %s\n", code, lc.languages()[code])
	}
	return sb.String()
}

// embed renders the languages as an embed for slash responses.
func (lc *LanguagesCommands) embed() *discordgo.MessageEmbed {
	langs := lc.languages()
	var sb strings.Builder
	for _, code := range sortedCodes(langs) {
		fmt.Fprintf(&sb, "`%s` %s\n", code, langs[code])
	}
	return &discordgo.MessageEmbed{
		Title:       "Translation Targets",
		Description: sb.String(),
		Color:       languagesColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Pass a code to the transcribe command to translate"},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func sortedCodes(langs map[string]string) []string {
	codes := make([]string, 0, len(langs))
	for c := range langs {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
