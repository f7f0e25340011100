package command

import (
	"context"
	"testing"
	"time"
)

type stubCommand struct {
	name    string
	aliases []string
}

func (s *stubCommand) Name() string            { return s.name }
func (s *stubCommand) Aliases() []string       { return s.aliases }
func (s *stubCommand) Description() string     { return "stub" }
func (s *stubCommand) Usage() string           { return "" }
func (s *stubCommand) Example() string         { return s.name }
func (s *stubCommand) ArgsRequired() bool      { return false }
func (s *stubCommand) GuildOnly() bool         { return false }
func (s *stubCommand) Policy() Policy          { return Policy{} }
func (s *stubCommand) Cooldown() time.Duration { return 0 }

func (s *stubCommand) Run(context.Context, *Invocation) error { return nil }

func TestRegisterAndGet(t *testing.T) {
	cmd := &stubCommand{name: "Status", aliases: []string{"ServerStatus", "online"}}
	Register(cmd)

	for _, key := range []string{"status", "STATUS", "serverstatus", "Online"} {
		got, ok := Get(key)
		if !ok {
			t.Errorf("Get(%q) did not resolve", key)
			continue
		}
		if got != Command(cmd) {
			t.Errorf("Get(%q) resolved to %q", key, got.Name())
		}
	}
	if _, ok := Get("offline"); ok {
		t.Error("unregistered name should not resolve")
	}
}

func TestRegisterCollisionPanics(t *testing.T) {
	Register(&stubCommand{name: "unique"})

	defer func() {
		if recover() == nil {
			t.Error("registering a name that shadows an existing alias should panic")
		}
	}()
	Register(&stubCommand{name: "other", aliases: []string{"unique"}})
}

func TestAllDeduplicatesAliases(t *testing.T) {
	Register(&stubCommand{name: "bbb", aliases: []string{"zzz"}})
	Register(&stubCommand{name: "aaa"})

	all := All()
	seen := map[string]int{}
	for _, cmd := range all {
		seen[cmd.Name()]++
	}
	if seen["bbb"] != 1 {
		t.Errorf("command with aliases listed %d times, want once", seen["bbb"])
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name() >= all[i].Name() {
			t.Errorf("All() not sorted: %q before %q", all[i-1].Name(), all[i].Name())
		}
	}
}
