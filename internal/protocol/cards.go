package protocol

import "regexp"

// FaceDown is the sentinel code for any card token that does not match the
// rank+suit grammar. Renderers draw it as a face-down card.
const FaceDown = "BACK"

var cardPattern = regexp.MustCompile(`^(10|[2-9]|[JQKA])([♠♣♦♥])$`)

var suitCodes = map[string]string{
	"♠": "S",
	"♣": "C",
	"♦": "D",
	"♥": "H",
}

// NormalizeCard maps a raw rank+suit token from the wire ("10♥") to its
// canonical code ("10H"). It is total: unrecognized input yields FaceDown.
func NormalizeCard(raw string) string {
	m := cardPattern.FindStringSubmatch(raw)
	if m == nil {
		return FaceDown
	}
	return m[1] + suitCodes[m[2]]
}

// NormalizeCards maps NormalizeCard over a whole hand.
func NormalizeCards(raw []string) []string {
	out := make([]string, len(raw))
	for i, c := range raw {
		out[i] = NormalizeCard(c)
	}
	return out
}
