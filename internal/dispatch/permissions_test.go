package dispatch

import (
	"testing"

	"craftwarden/internal/command"

	"github.com/bwmarrin/discordgo"
)

var (
	staffRanks = []string{"mod", "admin"}
	adminRanks = []string{"admin", "owner"}
)

func TestAllowedNoPolicy(t *testing.T) {
	actor := Actor{}
	if !Allowed(actor, command.Policy{}, staffRanks, adminRanks) {
		t.Error("empty policy should allow anyone")
	}
}

func TestAllowedPermissionBit(t *testing.T) {
	policy := command.Policy{Permission: discordgo.PermissionManageMessages}

	actor := Actor{Permissions: discordgo.PermissionManageMessages}
	if !Allowed(actor, policy, staffRanks, adminRanks) {
		t.Error("actor holding the permission bit should be allowed")
	}

	actor = Actor{Permissions: discordgo.PermissionSendMessages}
	if Allowed(actor, policy, staffRanks, adminRanks) {
		t.Error("actor lacking the permission bit should be denied")
	}
}

func TestAllowedStaffOnly(t *testing.T) {
	policy := command.Policy{StaffOnly: true}

	if Allowed(Actor{RoleNames: []string{"member"}}, policy, staffRanks, adminRanks) {
		t.Error("non-staff actor should be denied")
	}
	if !Allowed(Actor{RoleNames: []string{"member", "Mod"}}, policy, staffRanks, adminRanks) {
		t.Error("staff role comparison should be case-insensitive")
	}
}

func TestAllowedAdminOnly(t *testing.T) {
	policy := command.Policy{AdminOnly: true}

	if Allowed(Actor{RoleNames: []string{"mod"}}, policy, staffRanks, adminRanks) {
		t.Error("staff without an admin role should be denied an admin-only command")
	}
	if !Allowed(Actor{RoleNames: []string{"OWNER"}}, policy, staffRanks, adminRanks) {
		t.Error("admin role should satisfy admin-only")
	}
}

func TestAllowedEveryClauseGates(t *testing.T) {
	policy := command.Policy{
		Permission: discordgo.PermissionManageMessages,
		StaffOnly:  true,
		AdminOnly:  true,
	}
	actor := Actor{
		Permissions: discordgo.PermissionManageMessages,
		RoleNames:   []string{"mod"},
	}
	// Holds the bit and a staff role, but no admin role: any failing clause denies.
	if Allowed(actor, policy, staffRanks, adminRanks) {
		t.Error("one failing clause should deny even when the others pass")
	}

	actor.RoleNames = []string{"admin"}
	if !Allowed(actor, policy, staffRanks, adminRanks) {
		t.Error("actor passing all clauses should be allowed")
	}
}
