package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"craftwarden/internal/command"
	"craftwarden/internal/config"
	"craftwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type fakeResponder struct {
	replies []string
	embeds  []*discordgo.MessageEmbed
}

func (f *fakeResponder) Reply(channelID, content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeResponder) ReplyEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	f.embeds = append(f.embeds, embed)
	return nil
}

type fakeHistory struct {
	records []storage.CommandHistoryRecord
}

func (f *fakeHistory) AppendCommandToHistory(_ context.Context, rec storage.CommandHistoryRecord) error {
	f.records = append(f.records, rec)
	return nil
}

// fakeCommand is a configurable command body for pipeline tests.
type fakeCommand struct {
	name     string
	aliases  []string
	args     bool
	guild    bool
	policy   command.Policy
	window   time.Duration
	runs     int
	lastArgs []string
	err      error
	panics   bool
}

func (f *fakeCommand) Name() string            { return f.name }
func (f *fakeCommand) Aliases() []string       { return f.aliases }
func (f *fakeCommand) Description() string     { return "test command" }
func (f *fakeCommand) Usage() string           { return "<arg>" }
func (f *fakeCommand) Example() string         { return f.name + " thing" }
func (f *fakeCommand) ArgsRequired() bool      { return f.args }
func (f *fakeCommand) GuildOnly() bool         { return f.guild }
func (f *fakeCommand) Policy() command.Policy  { return f.policy }
func (f *fakeCommand) Cooldown() time.Duration { return f.window }

func (f *fakeCommand) Run(_ context.Context, inv *command.Invocation) error {
	f.runs++
	f.lastArgs = inv.Args
	if f.panics {
		panic("boom")
	}
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Prefix:     "!",
		Cooldown:   3 * time.Second,
		StaffRanks: []string{"mod", "admin"},
		AdminRoles: []string{"admin"},
	}
}

func testDispatcher(cmds ...*fakeCommand) (*Dispatcher, *fakeResponder, *fakeHistory) {
	resp := &fakeResponder{}
	hist := &fakeHistory{}
	d := New(testConfig(), resp, hist)
	d.SetSelf("12345")

	byName := map[string]command.Command{}
	for _, c := range cmds {
		byName[c.name] = c
		for _, a := range c.aliases {
			byName[a] = c
		}
	}
	d.lookup = func(name string) (command.Command, bool) {
		c, ok := byName[name]
		return c, ok
	}
	return d, resp, hist
}

func guildRequest(content string) Request {
	return Request{
		Content:   content,
		ChannelID: "chan",
		AuthorID:  "user1",
		AuthorTag: "user1#0001",
		InGuild:   true,
	}
}

func TestDispatchIgnoresUnprefixed(t *testing.T) {
	cmd := &fakeCommand{name: "ping"}
	d, resp, _ := testDispatcher(cmd)

	if d.Dispatch(context.Background(), guildRequest("ping"), nil, nil) {
		t.Error("message without prefix should not be treated as a command")
	}
	if cmd.runs != 0 || len(resp.replies) != 0 || len(resp.embeds) != 0 {
		t.Error("unprefixed message should produce no side effects")
	}
}

func TestDispatchUnknownNameIsSilent(t *testing.T) {
	d, resp, hist := testDispatcher()

	if !d.Dispatch(context.Background(), guildRequest("!nosuchcmd"), nil, nil) {
		t.Error("prefixed message should be consumed even when the name is unknown")
	}
	if len(resp.replies) != 0 || len(resp.embeds) != 0 {
		t.Error("unknown command should produce no reply")
	}
	if len(hist.records) != 0 {
		t.Error("unknown command should not be recorded")
	}
}

func TestDispatchByMention(t *testing.T) {
	cmd := &fakeCommand{name: "ping"}
	d, _, _ := testDispatcher(cmd)

	for _, content := range []string{"<@12345> ping", "<@!12345> ping"} {
		if !d.Dispatch(context.Background(), guildRequest(content), nil, nil) {
			t.Errorf("%q should be parsed as a command", content)
		}
	}
	if cmd.runs != 2 {
		t.Errorf("expected 2 runs, got %d", cmd.runs)
	}
}

func TestDispatchByAlias(t *testing.T) {
	cmd := &fakeCommand{name: "poll", aliases: []string{"ask"}}
	d, _, _ := testDispatcher(cmd)

	d.Dispatch(context.Background(), guildRequest("!ask a; b"), nil, nil)
	if cmd.runs != 1 {
		t.Fatal("alias should resolve to the command")
	}
	if got := strings.Join(cmd.lastArgs, " "); got != "a; b" {
		t.Errorf("args = %q, want %q", got, "a; b")
	}
}

func TestDispatchGuildOnly(t *testing.T) {
	cmd := &fakeCommand{name: "poll", guild: true}
	d, resp, _ := testDispatcher(cmd)

	req := guildRequest("!poll")
	req.InGuild = false
	d.Dispatch(context.Background(), req, nil, nil)

	if cmd.runs != 0 {
		t.Error("guild-only command must not run in a DM")
	}
	if len(resp.replies) != 1 || !strings.Contains(resp.replies[0], "only be used in a server") {
		t.Errorf("expected guild-only notice, got %v", resp.replies)
	}
}

func TestDispatchDeniedPermission(t *testing.T) {
	cmd := &fakeCommand{name: "poll", policy: command.Policy{AdminOnly: true}}
	d, resp, hist := testDispatcher(cmd)

	d.Dispatch(context.Background(), guildRequest("!poll"), nil, nil)

	if cmd.runs != 0 {
		t.Error("denied command must not run")
	}
	if len(resp.embeds) != 1 || !strings.Contains(resp.embeds[0].Description, "do not have permission") {
		t.Errorf("expected permission denial embed, got %v", resp.embeds)
	}
	if len(hist.records) != 0 {
		t.Error("denied invocation should not be recorded")
	}
}

// A denied invocation must not consume the actor's cooldown slot: once the
// member gains the role, the first allowed call goes straight through.
func TestDispatchDenialDoesNotConsumeCooldown(t *testing.T) {
	cmd := &fakeCommand{name: "poll", policy: command.Policy{AdminOnly: true}, window: time.Minute}
	d, resp, _ := testDispatcher(cmd)

	req := guildRequest("!poll")
	d.Dispatch(context.Background(), req, nil, nil)
	if cmd.runs != 0 {
		t.Fatal("first call should have been denied")
	}

	req.RoleNames = []string{"admin"}
	d.Dispatch(context.Background(), req, nil, nil)
	if cmd.runs != 1 {
		t.Fatal("allowed call after a denial should run immediately")
	}
	for _, e := range resp.embeds {
		if strings.Contains(e.Description, "do not spam") {
			t.Error("no cooldown message should appear for the first allowed call")
		}
	}
}

func TestDispatchArgsRequired(t *testing.T) {
	cmd := &fakeCommand{name: "whois", args: true, window: time.Minute}
	d, resp, _ := testDispatcher(cmd)

	d.Dispatch(context.Background(), guildRequest("!whois"), nil, nil)
	if cmd.runs != 0 {
		t.Error("command requiring args must not run without them")
	}
	if len(resp.embeds) != 1 {
		t.Fatalf("expected one usage embed, got %d", len(resp.embeds))
	}
	if got := resp.embeds[0].Fields[0].Value; !strings.Contains(got, "!whois <arg>") {
		t.Errorf("usage field = %q, want it to contain %q", got, "!whois <arg>")
	}

	// The rejected call must not have recorded a cooldown either.
	d.Dispatch(context.Background(), guildRequest("!whois target"), nil, nil)
	if cmd.runs != 1 {
		t.Error("call with args after a usage rejection should run immediately")
	}
}

func TestDispatchCooldown(t *testing.T) {
	cmd := &fakeCommand{name: "ping", window: time.Minute}
	d, resp, hist := testDispatcher(cmd)

	req := guildRequest("!ping")
	d.Dispatch(context.Background(), req, nil, nil)
	d.Dispatch(context.Background(), req, nil, nil)

	if cmd.runs != 1 {
		t.Errorf("second call inside the window should be blocked, runs = %d", cmd.runs)
	}
	if len(resp.embeds) != 1 || !strings.Contains(resp.embeds[0].Description, "do not spam") {
		t.Fatalf("expected a cooldown embed, got %v", resp.embeds)
	}
	if !strings.Contains(resp.embeds[0].Description, "second(s) before reusing the `ping` command") {
		t.Errorf("cooldown message = %q", resp.embeds[0].Description)
	}
	if len(hist.records) != 1 {
		t.Errorf("only the allowed call should be recorded, got %d records", len(hist.records))
	}

	// Other actors are unaffected.
	other := req
	other.AuthorID = "user2"
	d.Dispatch(context.Background(), other, nil, nil)
	if cmd.runs != 2 {
		t.Error("cooldown must be per command+actor pair")
	}
}

func TestDispatchRecordsHistory(t *testing.T) {
	cmd := &fakeCommand{name: "whois", args: true}
	d, _, hist := testDispatcher(cmd)

	d.Dispatch(context.Background(), guildRequest("!whois Captain_Sisko"), nil, nil)

	if len(hist.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(hist.records))
	}
	rec := hist.records[0]
	if rec.Command != "whois" || rec.Param != "Captain_Sisko" || rec.UserID != "user1" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestDispatchCommandError(t *testing.T) {
	cmd := &fakeCommand{name: "ping", err: errors.New("redis down")}
	d, resp, _ := testDispatcher(cmd)

	d.Dispatch(context.Background(), guildRequest("!ping"), nil, nil)

	if len(resp.replies) != 1 || !strings.Contains(resp.replies[0], "An error occurred whilst executing the `ping` command") {
		t.Errorf("expected generic failure notice, got %v", resp.replies)
	}
}

func TestDispatchCommandPanic(t *testing.T) {
	cmd := &fakeCommand{name: "ping", panics: true}
	d, resp, _ := testDispatcher(cmd)

	// Must not propagate the panic.
	d.Dispatch(context.Background(), guildRequest("!ping"), nil, nil)

	if len(resp.replies) != 1 || !strings.Contains(resp.replies[0], "An error occurred") {
		t.Errorf("expected generic failure notice after panic, got %v", resp.replies)
	}

	// The dispatcher stays usable afterwards.
	other := &fakeCommand{name: "pong"}
	d.lookup = func(string) (command.Command, bool) { return other, true }
	d.Dispatch(context.Background(), guildRequest("!pong"), nil, nil)
	if other.runs != 1 {
		t.Error("dispatcher should keep working after a command panic")
	}
}

func TestIsCommand(t *testing.T) {
	d, _, _ := testDispatcher()
	cases := []struct {
		content string
		want    bool
	}{
		{"!ping", true},
		{"<@12345> ping", true},
		{"<@!12345> ping", true},
		{"ping", false},
		{"hello !ping", false},
		{"<@99999> ping", false},
	}
	for _, c := range cases {
		if got := d.IsCommand(c.content); got != c.want {
			t.Errorf("IsCommand(%q) = %v, want %v", c.content, got, c.want)
		}
	}
}
