// Package extract builds the per-conversation client memory from free-form
// Polish user messages. One typed recognizer per fact, composed by Apply;
// facts enter memory only from an explicit mention, never by inference.
package extract

import (
	"regexp"
	"strings"
)

// retractionTargets maps the genitive noun a client uses when taking back a
// fact ("nie podawałem budżetu") onto the memory key to drop.
var retractionTargets = map[string]FactKey{
	"budżetu":  FactBudget,
	"budzetu":  FactBudget,
	"metrażu":  FactSquareMeters,
	"metrazu":  FactSquareMeters,
	"miasta":   FactCity,
	"imienia":  FactName,
	"nazwiska": FactName,
	"pakietu":  FactPackage,
	"emaila":   FactEmail,
	"maila":    FactEmail,
	"adresu":   FactEmail,
	"telefonu": FactPhone,
	"numeru":   FactPhone,
}

var retractionPattern = regexp.MustCompile(`(?i)nie\s+(?:podawał[ea]m|podałem|podałam|mówił[ea]m|pisał[ea]m)\s+(?:ci\s+|żadnego\s+|swojego\s+)?(\p{L}+)`)

// Apply merges whatever the message explicitly states into a copy of the
// current memory. Last stated wins; an explicit retraction removes the key.
// The input memory is never mutated.
func Apply(mem Memory, message string) Memory {
	out := mem.Clone()

	for _, m := range retractionPattern.FindAllStringSubmatch(message, -1) {
		if key, ok := retractionTargets[strings.ToLower(m[1])]; ok {
			delete(out, key)
		}
	}

	if v, ok := squareMeters(message); ok {
		out[FactSquareMeters] = v
	}
	if v, ok := budget(message); ok {
		out[FactBudget] = v
	}
	if v, ok := city(message); ok {
		out[FactCity] = v
	}
	if v, ok := renovationPackage(message); ok {
		out[FactPackage] = v
	}
	if v, ok := name(message); ok {
		out[FactName] = v
	}
	if v, ok := email(message); ok {
		out[FactEmail] = v
	}
	if v, ok := phone(message); ok {
		out[FactPhone] = v
	}

	return out
}
