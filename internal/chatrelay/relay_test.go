package chatrelay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"craftwarden/internal/config"
	"craftwarden/internal/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type capturePublisher struct {
	channel string
	payload any
	calls   int
	err     error
}

func (c *capturePublisher) PublishJSON(_ context.Context, channel string, v any) error {
	c.calls++
	c.channel = channel
	c.payload = v
	return c.err
}

type fakeRoster struct {
	players []storage.OnlinePlayer
	err     error
}

func (f *fakeRoster) OnlinePlayers(context.Context) ([]storage.OnlinePlayer, error) {
	return f.players, f.err
}

func relayConfig() *config.Config {
	return &config.Config{
		RankColors: map[string]string{"admin": "&c"},
	}
}

func TestSendPublishesPayload(t *testing.T) {
	pub := &capturePublisher{}
	r := New(pub, &fakeRoster{}, relayConfig())

	msg := Outbound{
		AuthorTag:   "sisko#0001",
		AuthorID:    "user1",
		DisplayName: "Sisko",
		TopRole:     "Admin",
		Content:     "hello world",
		Attachments: []Attachment{{Filename: "map.png", URL: "https://cdn/map.png"}},
	}
	if err := r.Send(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if pub.channel != "minecraft.chat" {
		t.Errorf("published on %q", pub.channel)
	}

	want := ChatPayload{
		Type:        "discord_chat",
		Username:    "sisko#0001",
		Prefix:      "&#7289DA[Discord&cAdmin&#7289DA]&r Sisko &#7289DA&l»&r ",
		SenderID:    "user1",
		Content:     "hello world",
		Attachments: []Attachment{{Filename: "map.png", URL: "https://cdn/map.png"}},
		Color:       true,
		Format:      true,
	}
	got, ok := pub.payload.(ChatPayload)
	if !ok {
		t.Fatalf("payload has type %T", pub.payload)
	}
	if got.Timestamp == 0 {
		t.Error("timestamp should be set")
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(ChatPayload{}, "Timestamp")); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSendRejectsOverlongMessage(t *testing.T) {
	pub := &capturePublisher{}
	r := New(pub, &fakeRoster{}, relayConfig())

	msg := Outbound{Content: strings.Repeat("a", MaxChatLength+1)}
	if err := r.Send(context.Background(), msg); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
	if pub.calls != 0 {
		t.Error("rejected message must never reach the bridge")
	}
}

func TestSendLengthCountsRunes(t *testing.T) {
	pub := &capturePublisher{}
	r := New(pub, &fakeRoster{}, relayConfig())

	// Exactly at the limit in runes, over it in bytes.
	msg := Outbound{Content: strings.Repeat("ü", MaxChatLength)}
	if err := r.Send(context.Background(), msg); err != nil {
		t.Errorf("message of exactly %d runes should pass, got %v", MaxChatLength, err)
	}
}

func TestSendUnknownRoleColour(t *testing.T) {
	pub := &capturePublisher{}
	r := New(pub, &fakeRoster{}, relayConfig())

	if err := r.Send(context.Background(), Outbound{TopRole: "Member", DisplayName: "Sisko", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	got := pub.payload.(ChatPayload)
	if !strings.Contains(got.Prefix, "[DiscordMember") {
		t.Errorf("role without a configured colour should render bare, prefix = %q", got.Prefix)
	}
}

func TestPlayerList(t *testing.T) {
	roster := &fakeRoster{players: []storage.OnlinePlayer{
		{Username: "Sisko", UUID: "uuid-1"},
		{Username: "Dax", UUID: "uuid-2"},
	}}
	r := New(&capturePublisher{}, roster, relayConfig())

	got, err := r.PlayerList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "Players online (2): `Sisko, Dax`" {
		t.Errorf("list = %q", got)
	}
}

func TestPlayerListEmpty(t *testing.T) {
	r := New(&capturePublisher{}, &fakeRoster{}, relayConfig())
	got, err := r.PlayerList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "No players online" {
		t.Errorf("list = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"unicode emoji to shortcode", "nice 🔥", "nice :fire:"},
		{"custom emoji collapses", "<:pogchamp:123456789> wow", ":pogchamp: wow"},
		{"animated custom emoji collapses", "<a:partyblob:987654321>", ":partyblob:"},
		{"known shortcode override", "I :heart: this server", "I <3 this server"},
		{"unknown shortcode kept", "mystery :zorble: token", "mystery :zorble: token"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Sanitize(c.in); got != c.want {
				t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
