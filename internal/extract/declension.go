package extract

import "strings"

// Common first names with irregular vocative forms. The list is data, not
// algorithm; extend it as native speakers spot misses.
var vocativeExceptions = map[string]string{
	"piotr":      "Piotrze",
	"marek":      "Marku",
	"jacek":      "Jacku",
	"franciszek": "Franciszku",
	"paweł":      "Pawle",
	"jakub":      "Kubo",
	"bartek":     "Bartku",
	"darek":      "Darku",
	"mirek":      "Mirku",
	"tomek":      "Tomku",
}

// Vocative approximates the Polish vocative case for a first name. Falls back
// to the nominative when no rule applies, which is always grammatical even if
// less warm.
func Vocative(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if v, ok := vocativeExceptions[strings.ToLower(name)]; ok {
		return v
	}

	runes := []rune(name)
	last := runes[len(runes)-1]
	switch last {
	case 'a', 'A':
		// Feminine names: Anna -> Anno, Kasia -> Kasiu.
		if len(runes) >= 2 {
			prev := runes[len(runes)-2]
			if prev == 'i' || prev == 'j' {
				return string(runes[:len(runes)-1]) + "u"
			}
		}
		return string(runes[:len(runes)-1]) + "o"
	case 'ł':
		return string(runes[:len(runes)-1]) + "le"
	case 'k':
		return name + "u"
	case 'r', 't', 'd', 'n', 'm', 'p', 'b', 's', 'w', 'z', 'f':
		return name + "ie"
	case 'j', 'l':
		return name + "u"
	default:
		return name
	}
}
