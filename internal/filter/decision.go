package filter

// Verdict classifies what a filter did with a piece of text.
type Verdict int

const (
	// VerdictSafe means the text passed through unchanged.
	VerdictSafe Verdict = iota
	// VerdictRedacted means sensitive spans were masked but the text is usable.
	VerdictRedacted
	// VerdictBlocked means the text must not be forwarded at all.
	VerdictBlocked
)

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "safe"
	case VerdictRedacted:
		return "redacted"
	case VerdictBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Decision is the result of running text through a filter. It is produced
// fresh per message and never persisted.
type Decision struct {
	Text    string
	Verdict Verdict
	Reason  string
}

// Safe reports whether the text may be forwarded (possibly redacted).
func (d Decision) Safe() bool {
	return d.Verdict != VerdictBlocked
}

func safe(text string) Decision {
	return Decision{Text: text, Verdict: VerdictSafe}
}

func redacted(text, reason string) Decision {
	return Decision{Text: text, Verdict: VerdictRedacted, Reason: reason}
}

func blocked(text, reason string) Decision {
	return Decision{Text: text, Verdict: VerdictBlocked, Reason: reason}
}
