package reply

import "strings"

// Verdict is the classification of a confirmation reply.
type Verdict string

const (
	Yes   Verdict = "yes"
	No    Verdict = "no"
	Other Verdict = "other"
)

var yesWords = map[string]struct{}{
	"yes":  {},
	"y":    {},
	"ok":   {},
	"okay": {},
}

var noWords = map[string]struct{}{
	"no": {},
	"n":  {},
}

// Classify maps a confirmation reply to a verdict. Matching is deliberately
// strict: only the exact literals above are recognized after trimming and
// case folding, so "Yes!" is Other and triggers a re-prompt.
func Classify(text string) Verdict {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if _, ok := yesWords[normalized]; ok {
		return Yes
	}
	if _, ok := noWords[normalized]; ok {
		return No
	}
	return Other
}
