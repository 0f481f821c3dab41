package commands

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// failingEmbedSender rejects every embed send.
type failingEmbedSender struct {
	err error
}

func (f *failingEmbedSender) ChannelMessageSendEmbed(string, *discordgo.MessageEmbed, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, f.err
}

func TestSendEmbedLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	hc := &HelpCommands{prefix: func() string { return "vmt " }}
	hc.sendEmbed(&failingEmbedSender{err: errors.New("missing permissions")}, "chan-1")

	if !strings.Contains(buf.String(), "failed to send help embed") {
		t.Errorf("embed send failure was not logged:\n%s", buf.String())
	}
}

func TestHelpEmbedListsCommands(t *testing.T) {
	t.Parallel()

	hc := &HelpCommands{prefix: func() string { return "!" }}
	embed := hc.embed()

	var all strings.Builder
	for _, f := range embed.Fields {
		all.WriteString(f.Value)
		all.WriteString("\n")
	}
	for _, want := range []string{"`!transcribe`", "`!help`", "/transcribe", "/languages"} {
		if !strings.Contains(all.String(), want) {
			t.Errorf("help embed missing %q:\n%s", want, all.String())
		}
	}
}
