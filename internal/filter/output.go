package filter

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MinResponseLength rejects degenerate completions outright.
	MinResponseLength = 10
	// MaxResponseLength caps what we are willing to show a customer.
	MaxResponseLength = 2000
)

// Leakage spans are redacted in place rather than blocking the whole answer.
// Blocking an otherwise useful reply costs more UX-wise than masking one
// field, which is the opposite trade-off from the input filter.
var leakagePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password)\b\s*[:=]\s*\S+`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)\b(postgres(ql)?|mysql|redis|mongodb(\+srv)?)://\S+`), "[CONNECTION_STRING_REDACTED]"},
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[EMAIL_REDACTED]"},
	{regexp.MustCompile(`(?:\+48[ -]?)?\d{3}[ -]?\d{3}[ -]?\d{3}\b`), "[PHONE_REDACTED]"},
	{regexp.MustCompile(`(?m)^\s+at\s+[\w$.]+\s*\(.*:\d+:\d+\)`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`Traceback \(most recent call last\)[\s\S]{0,400}`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`(?im)^(?:[A-Z][A-Z0-9_]{2,}=\S+\n?){2,}`), "[CONFIG_REDACTED]"},
}

// Responses that read like hacking instructions never reach the user.
var inappropriatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow\s+to\s+(hack|exploit|bypass)\b`),
	regexp.MustCompile(`(?i)\b(jak)\s+(zhakować|włamać\s+się|obejść\s+zabezpieczenia)\b`),
	regexp.MustCompile(`(?i)\b(sql\s+injection|exploit\s+code|bypass\s+security)\b`),
}

// FilterOutput validates and sanitizes a raw model completion before it is
// shown to the user.
func FilterOutput(text string) Decision {
	trimmed := strings.TrimSpace(text)
	// Length limits count characters, not bytes; truncation must never split
	// a multi-byte rune.
	runes := []rune(trimmed)
	if len(runes) < MinResponseLength {
		return blocked("", fmt.Sprintf("response shorter than %d characters", MinResponseLength))
	}

	for _, re := range inappropriatePatterns {
		if re.MatchString(trimmed) {
			return blocked("", "inappropriate content in response")
		}
	}

	if len(runes) > MaxResponseLength {
		return blocked(string(runes[:MaxResponseLength])+"...", fmt.Sprintf("response exceeds %d characters", MaxResponseLength))
	}

	out := trimmed
	var sanitized []string
	for _, p := range leakagePatterns {
		next := p.re.ReplaceAllString(out, p.replacement)
		if next != out {
			sanitized = append(sanitized, p.replacement)
			out = next
		}
	}

	if len(sanitized) > 0 {
		return redacted(out, "sanitized: "+strings.Join(sanitized, ", "))
	}
	return safe(out)
}
