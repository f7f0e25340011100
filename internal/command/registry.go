package command

import (
	"fmt"
	"sort"
	"strings"
)

// registry maps lowercase primary names and aliases to commands. Populated from
// init() functions, immutable once the bot is running.
var registry = map[string]Command{}

// Register adds a command under its name and every alias. Primary names and
// aliases share one namespace; a collision is a programmer error and panics at
// startup.
func Register(cmd Command) {
	put(strings.ToLower(cmd.Name()), cmd)
	for _, alias := range cmd.Aliases() {
		put(strings.ToLower(alias), cmd)
	}
}

func put(key string, cmd Command) {
	if prev, exists := registry[key]; exists {
		panic(fmt.Sprintf("command name %q registered by both %q and %q", key, prev.Name(), cmd.Name()))
	}
	registry[key] = cmd
}

// Get resolves a primary name or alias, case-insensitively.
func Get(name string) (Command, bool) {
	cmd, ok := registry[strings.ToLower(name)]
	return cmd, ok
}

// All returns every registered command once, sorted by primary name.
func All() []Command {
	seen := map[string]bool{}
	var list []Command
	for _, cmd := range registry {
		if seen[cmd.Name()] {
			continue
		}
		seen[cmd.Name()] = true
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
