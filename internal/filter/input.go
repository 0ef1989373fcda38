package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxInputLength is the ceiling for a single user message.
const MaxInputLength = 4000

// Prompt-injection signatures. Matching is case-insensitive and covers both
// Polish and English phrasings; the lists are data, extend them as new
// attempts show up in logs.
var injectionPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)(ignoruj|zignoruj|pomiń)\s+(wszystkie\s+)?(poprzednie|wcześniejsze|powyższe)\s+(instrukcje|polecenia|komendy)`), "instruction override (pl)"},
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts|rules)`), "instruction override (en)"},
	{regexp.MustCompile(`(?i)(pokaż|podaj|ujawnij|wyświetl|zdradź)\s+(mi\s+)?(swój\s+|cały\s+|twój\s+)*(prompt|prompt\s+systemowy|instrukcje\s+systemowe)`), "system prompt disclosure (pl)"},
	{regexp.MustCompile(`(?i)(show|reveal|print|display|repeat)\s+(me\s+)?(your\s+)?(system\s+prompt|initial\s+instructions|hidden\s+instructions)`), "system prompt disclosure (en)"},
	{regexp.MustCompile(`(?i)(nadpisz|zmień|zastąp)\s+(swoje\s+)?(instrukcje|zasady|reguły)`), "instruction rewrite (pl)"},
	{regexp.MustCompile(`(?i)(override|overwrite|replace)\s+(your\s+)?(instructions|rules|guidelines)`), "instruction rewrite (en)"},
	{regexp.MustCompile(`(?i)(act|behave|pretend)\s+as\s+(an?\s+)?(admin|administrator|developer|root|system)`), "role escalation (en)"},
	{regexp.MustCompile(`(?i)(udawaj|zachowuj\s+się\s+jak|jesteś\s+teraz)\s+(admin|administrator|developer|root|system)`), "role escalation (pl)"},
	{regexp.MustCompile(`(?i)(execute|run|eval)\s+(this\s+)?(code|script|command)`), "code execution (en)"},
	{regexp.MustCompile(`(?i)(wykonaj|uruchom)\s+(ten\s+|to\s+|następujący\s+)?(kod|skrypt|polecenie|komendę)`), "code execution (pl)"},
	{regexp.MustCompile(`(?i)(reveal|show|give|leak)\s+.{0,30}\b(api[_ -]?key|secret|token|password|credentials)\b`), "secret disclosure (en)"},
	{regexp.MustCompile(`(?i)(podaj|pokaż|ujawnij)\s+.{0,30}\b(klucz(e)?\s+api|sekret|token|hasł[oa])\b`), "secret disclosure (pl)"},
	{regexp.MustCompile(`(?i)\b(delete|drop|truncate|wipe)\s+(all|every|the\s+entire)\b`), "bulk delete (en)"},
	{regexp.MustCompile(`(?i)\b(usuń|skasuj|wyczyść)\s+(wszystk\w+|całą\s+bazę|wszystkie\s+dane)\b`), "bulk delete (pl)"},
	{regexp.MustCompile(`(?m)^\s+at\s+[\w$.]+\s*\(.*:\d+:\d+\)`), "stack trace payload"},
	{regexp.MustCompile(`Traceback \(most recent call last\)`), "stack trace payload"},
	{regexp.MustCompile(`[A-Za-z0-9+/]{120,}={0,2}`), "base64 blob"},
}

// Secret-assignment spans are redacted rather than blocked; a user pasting a
// key by accident should still get an answer.
var secretAssignmentPattern = regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|token|secret|password|passwd|hasło)\b\s*[:=]\s*\S+`)

// Bare provider keys pasted without any assignment still get masked.
var bareAPIKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{32,}\b`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// FilterInput validates and sanitizes a raw user message before any of it can
// reach the language model. Pure function; the caller accounts for blocked
// messages in metrics.
func FilterInput(raw string) Decision {
	// Length limits count characters, not bytes; Polish text is multi-byte
	// and truncation must never split a rune.
	if runes := []rune(raw); len(runes) > MaxInputLength {
		return blocked(string(runes[:MaxInputLength]), fmt.Sprintf("input exceeds %d characters", MaxInputLength))
	}

	for _, p := range injectionPatterns {
		if p.re.MatchString(raw) {
			return blocked("", "prompt injection detected: "+p.reason)
		}
	}

	out := raw
	redactedSecret := false
	out = secretAssignmentPattern.ReplaceAllStringFunc(out, func(m string) string {
		redactedSecret = true
		name := m
		if i := strings.IndexAny(m, ":="); i >= 0 {
			name = strings.TrimSpace(m[:i])
		}
		return name + ": [REDACTED]"
	})

	if bareAPIKeyPattern.MatchString(out) {
		out = bareAPIKeyPattern.ReplaceAllString(out, "API_KEY: [REDACTED]")
		redactedSecret = true
	}

	out = strings.TrimSpace(whitespacePattern.ReplaceAllString(out, " "))

	if redactedSecret {
		return redacted(out, "secret-like assignment redacted")
	}
	return safe(out)
}
