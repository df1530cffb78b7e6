package racedomain

import "strings"

// JoinDisqualifyText combines a reason and a gate ("Torfehler", "12") into
// the single stored text "Torfehler 12".
func JoinDisqualifyText(reason, gate string) string {
	reason = strings.TrimSpace(reason)
	gate = strings.TrimSpace(gate)
	switch {
	case gate == "":
		return reason
	case reason == "":
		return gate
	}
	return reason + " " + gate
}

// SplitDisqualifyText reverses JoinDisqualifyText: trailing digits are taken
// as the gate number.
func SplitDisqualifyText(text string) (reason, gate string) {
	text = strings.TrimSpace(text)
	i := len(text)
	for i > 0 && text[i-1] >= '0' && text[i-1] <= '9' {
		i--
	}
	return strings.TrimSpace(text[:i]), text[i:]
}
