package reply

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func testMessage() *discordgo.Message {
	return &discordgo.Message{
		ID:        "111222333",
		ChannelID: "444555666",
		GuildID:   "777888999",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Author:    &discordgo.User{ID: "42", Username: "alice"},
	}
}

func TestBuildShortTranscript(t *testing.T) {
	t.Parallel()

	p := Build("hello there, just checking in", testMessage(), nil)

	if p.File != nil {
		t.Errorf("short transcript attached a file: %v", p.File.Name)
	}
	for _, want := range []string{
		"> **Transcription of alice's voice message | msg 111222333 | 2026-03-14 09:26:53 UTC**",
		"> Source: https://discord.com/channels/777888999/444555666/111222333",
		"> hello there, just checking in",
		"> (end)",
	} {
		if !strings.Contains(p.Content, want) {
			t.Errorf("content missing %q\ncontent:\n%s", want, p.Content)
		}
	}
	if strings.Contains(p.Content, "requested by") {
		t.Error("content credits a requester without one being set")
	}
}

func TestBuildCreditsRequester(t *testing.T) {
	t.Parallel()

	p := Build("short", testMessage(), &discordgo.User{ID: "7", Username: "bob"})
	if !strings.Contains(p.Content, "| requested by bob") {
		t.Errorf("content missing requester credit:\n%s", p.Content)
	}
}

func TestBuildEmptyTranscript(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t"} {
		p := Build(text, testMessage(), nil)
		if !strings.Contains(p.Content, "> "+EmptyPlaceholder) {
			t.Errorf("Build(%q) content missing placeholder:\n%s", text, p.Content)
		}
		if p.File != nil {
			t.Errorf("Build(%q) attached a file", text)
		}
	}
}

func TestBuildLongTranscriptAttachesFile(t *testing.T) {
	t.Parallel()

	full := strings.Repeat("lorem ipsum dolor sit amet ", 50) // ~1350 chars
	full = strings.TrimSpace(full)
	p := Build(full, testMessage(), nil)

	if !strings.Contains(p.Content, "... (truncated)") {
		t.Error("content missing truncation marker")
	}
	if !strings.Contains(p.Content, "> (full transcript attached as file)") {
		t.Error("content missing file footer")
	}
	if p.File == nil {
		t.Fatal("long transcript did not attach a file")
	}
	if want := "vm_alice_20260314-092653_111222333.txt"; p.File.Name != want {
		t.Errorf("file name = %q, want %q", p.File.Name, want)
	}

	data, err := io.ReadAll(p.File.Reader)
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if string(data) != full {
		t.Error("attachment does not carry the full transcript")
	}
}

func TestBuildMidLengthAttachesWithoutTruncation(t *testing.T) {
	t.Parallel()

	// Between the preview limit (600) and the file threshold (900) the
	// text is truncated inline, which alone forces the attachment.
	full := strings.Repeat("a", 700)
	p := Build(full, testMessage(), nil)
	if p.File == nil {
		t.Fatal("700-char transcript did not attach a file")
	}
	if !strings.Contains(p.Content, "... (truncated)") {
		t.Error("content missing truncation marker")
	}
}

func TestBuildExactlyAtLimitStaysInline(t *testing.T) {
	t.Parallel()

	p := Build(strings.Repeat("a", 600), testMessage(), nil)
	if p.File != nil {
		t.Error("600-char transcript attached a file")
	}
	if strings.Contains(p.Content, "... (truncated)") {
		t.Error("600-char transcript was truncated")
	}
}

func TestBuildCutsPreviewAtNewlineNearEnd(t *testing.T) {
	t.Parallel()

	// A line break 50 chars before the limit should become the cut point.
	full := strings.Repeat("a", 550) + "\n" + strings.Repeat("b", 500)
	p := Build(full, testMessage(), nil)

	if strings.Contains(p.Content, "> "+strings.Repeat("b", 40)) {
		t.Error("preview kept text past the newline cut point")
	}
	if !strings.Contains(p.Content, "... (truncated)") {
		t.Error("content missing truncation marker")
	}
}

func TestBuildQuotesBlankLines(t *testing.T) {
	t.Parallel()

	p := Build("first paragraph\n\nsecond paragraph", testMessage(), nil)
	if !strings.Contains(p.Content, "> first paragraph\n>\n> second paragraph") {
		t.Errorf("blank line not rendered as bare quote marker:\n%s", p.Content)
	}
}

func TestBuildDMUsesAtMeJumpURL(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.GuildID = ""
	p := Build("hi", msg, nil)
	if !strings.Contains(p.Content, "https://discord.com/channels/@me/444555666/111222333") {
		t.Errorf("DM jump URL not using @me:\n%s", p.Content)
	}
}

func TestAttachmentNameSanitizesAuthor(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.Author.Username = "weird name!?/with spaces"
	got := attachmentName(msg)
	if want := "vm_weird_name_with_spaces_20260314-092653_111222333.txt"; got != want {
		t.Errorf("attachmentName() = %q, want %q", got, want)
	}
}

func TestFailureMessages(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	if got, want := Failed(msg), "Could not transcribe the Voice Message from alice."; got != want {
		t.Errorf("Failed() = %q, want %q", got, want)
	}
	if got, want := RequestFailed(msg), "Failed to transcribe VM from alice."; got != want {
		t.Errorf("RequestFailed() = %q, want %q", got, want)
	}
}
