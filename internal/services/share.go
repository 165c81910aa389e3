package services

import (
	"fmt"
	"strconv"
	"strings"

	"battle-arena/internal/models"
)

const shareFooter = "\n\nErstellt mit \"Gleich ist NICHT Gleich\" Battle App"

// Share is the text a user can post or mail after a battle.
type Share struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Mailto string `json:"mailto"`
}

// NewShare builds the share title, text and mailto link for r.
func NewShare(r *models.BattleResult) Share {
	title := fmt.Sprintf("Battle: %s vs %s", r.Combatant1.Name, r.Combatant2.Name)
	text := ShareText(r)
	return Share{
		Title:  title,
		Text:   text,
		Mailto: "mailto:?subject=" + encodeURIComponent(title) + "&body=" + encodeURIComponent(text+shareFooter),
	}
}

// ShareText renders the short result summary.
func ShareText(r *models.BattleResult) string {
	return fmt.Sprintf("⚔️ BATTLE ERGEBNIS ⚔️\n\n%s VS %s\n\nSIEGER: %s (%s%%)\n\n%s",
		r.Combatant1.Name,
		r.Combatant2.Name,
		r.WinnerCombatant().Name,
		strconv.FormatFloat(r.WinProbability, 'f', -1, 64),
		r.Verdict,
	)
}

// encodeURIComponent percent-encodes s like the browser function of the same
// name: letters, digits and -_.!~*'() stay as they are, all other UTF-8
// bytes become %XX.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
