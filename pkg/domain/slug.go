package domain

import (
	"strings"
	"unicode"
)

// DefaultChannelPrefix prefixes every game channel name.
const DefaultChannelPrefix = "gm"

// ChannelSlug derives the private channel name for a game:
// prefix + last two characters of gameID + "-" + continent + "-" + codename,
// lowercased, with inner whitespace collapsed to "-".
func ChannelSlug(prefix, gameID, continent, codename string) string {
	id := []rune(strings.TrimSpace(gameID))
	if len(id) > 2 {
		id = id[len(id)-2:]
	}
	return prefix + string(id) + "-" + slugPart(continent) + "-" + slugPart(codename)
}

func slugPart(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace), "-")
}
