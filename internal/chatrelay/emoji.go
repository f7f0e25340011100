package chatrelay

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

var (
	customEmojiRe = regexp.MustCompile(`<a?(:\S*:)\d+>`)
	shortcodeRe   = regexp.MustCompile(`:([_a-zA-Z0-9]*):`)
)

// shortcodeOverrides maps shortcodes to the textual form the game-side chat
// renders; anything unmapped is left as the bare :name: token.
var shortcodeOverrides = map[string]string{
	"heart":            "<3",
	"broken_heart":     "</3",
	"thumbsup":         ":+1:",
	"thumbsdown":       ":-1:",
	"slight_smile":     ":)",
	"slight_frown":     ":(",
	"smile":            ":D",
	"wink":             ";)",
	"stuck_out_tongue": ":P",
}

// Sanitize converts a Discord message into plain text the game chat can show:
// unicode emoji become :shortcode: tokens, custom-emoji markup collapses to its
// name, and known shortcodes are replaced with their textual form.
func Sanitize(content string) string {
	for _, e := range gomoji.FindAll(content) {
		content = strings.ReplaceAll(content, e.Character, ":"+e.Slug+":")
	}

	content = customEmojiRe.ReplaceAllString(content, "$1")

	return shortcodeRe.ReplaceAllStringFunc(content, func(token string) string {
		name := shortcodeRe.FindStringSubmatch(token)[1]
		if mapped, ok := shortcodeOverrides[name]; ok {
			return mapped
		}
		return token
	})
}
