// Package generation produces the mascot's replies from assembled prompts.
package generation

import (
	"strings"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

// stopTags end a completion: the model has started writing another speaker's line.
var stopTags = []string{chat.UserTag, "キャラクター:", "キャラ:", "ファンサイト:"}

// CleanReply keeps the text after the last mascot tag and cuts it at the
// first stop tag.
func CleanReply(raw string) string {
	if i := strings.LastIndex(raw, chat.MascotTag); i >= 0 {
		raw = raw[i+len(chat.MascotTag):]
	}
	cut := len(raw)
	for _, tag := range stopTags {
		if i := strings.Index(raw, tag); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(raw[:cut])
}
