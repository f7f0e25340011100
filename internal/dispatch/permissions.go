package dispatch

import (
	"strings"

	"craftwarden/internal/command"
)

// Actor is the permission-relevant view of the invoking member.
type Actor struct {
	RoleNames   []string
	Permissions int64
}

// Allowed evaluates a command policy against an actor. Every clause is a gate:
// any failing clause denies. Role names compare case-insensitively.
func Allowed(actor Actor, policy command.Policy, staffRanks, adminRanks []string) bool {
	if policy.Permission != 0 && actor.Permissions&policy.Permission == 0 {
		return false
	}
	if policy.StaffOnly && !intersects(actor.RoleNames, staffRanks) {
		return false
	}
	if policy.AdminOnly && !intersects(actor.RoleNames, adminRanks) {
		return false
	}
	return true
}

func intersects(roleNames, ranks []string) bool {
	for _, name := range roleNames {
		for _, rank := range ranks {
			if strings.EqualFold(name, rank) {
				return true
			}
		}
	}
	return false
}
