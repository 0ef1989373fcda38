// Package knowledge holds the canned sales knowledge: finishing packages and
// the FAQ entries the deterministic strategy answers from without touching
// the LLM. Content is static data; only the matcher is logic.
package knowledge

import (
	"strings"
)

// Package describes one NovaHouse finishing package.
type Package struct {
	Name         string
	PricePerM2   int // zł
	Description  string
	DurationWeek int
}

var Packages = []Package{
	{
		Name:         "Standard",
		PricePerM2:   1100,
		Description:  "Solidne wykończenie pod klucz: panele, malowanie, biały montaż.",
		DurationWeek: 6,
	},
	{
		Name:         "Comfort",
		PricePerM2:   1500,
		Description:  "Podwyższony standard: drewno, zabudowy na wymiar, oświetlenie LED.",
		DurationWeek: 8,
	},
	{
		Name:         "Premium",
		PricePerM2:   2200,
		Description:  "Materiały premium, projekt indywidualny, nadzór architekta.",
		DurationWeek: 12,
	},
}

// PackageByName returns the package matching the canonical name.
func PackageByName(name string) (Package, bool) {
	for _, p := range Packages {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Package{}, false
}

// Entry is one FAQ item. Keywords are matched against a normalized message;
// MinHits keeps single incidental words from triggering an answer.
type Entry struct {
	ID       string
	Keywords []string
	MinHits  int
	Answer   string
}

var Entries = []Entry{
	{
		ID:       "packages",
		Keywords: []string{"pakiet", "pakiety", "oferta", "oferujecie", "zakres", "standard", "comfort", "premium"},
		MinHits:  2,
		Answer: "Oferujemy trzy pakiety wykończeniowe: Standard (1100 zł/m2), Comfort (1500 zł/m2) " +
			"i Premium (2200 zł/m2). Każdy obejmuje kompleksowe wykończenie pod klucz. " +
			"Który zakres chciałbyś poznać bliżej?",
	},
	{
		ID:       "pricing",
		Keywords: []string{"cena", "ceny", "cennik", "koszt", "kosztuje", "ile", "stawka"},
		MinHits:  2,
		Answer: "Ceny zaczynają się od 1100 zł/m2 w pakiecie Standard, 1500 zł/m2 w Comfort " +
			"i 2200 zł/m2 w Premium. Podaj metraż mieszkania, a przygotuję orientacyjną wycenę.",
	},
	{
		ID:       "timeline",
		Keywords: []string{"czas", "trwa", "termin", "tygodni", "miesięcy", "harmonogram", "kiedy"},
		MinHits:  2,
		Answer: "Wykończenie w pakiecie Standard trwa około 6 tygodni, Comfort 8 tygodni, " +
			"a Premium do 12 tygodni od przekazania kluczy.",
	},
	{
		ID:       "process",
		Keywords: []string{"proces", "etapy", "wygląda", "współpraca", "krok", "kroku"},
		MinHits:  2,
		Answer: "Współpraca przebiega w czterech krokach: bezpłatna konsultacja, projekt i wycena, " +
			"realizacja z dedykowanym opiekunem, odbiór pod klucz. Umówić Cię na konsultację?",
	},
	{
		ID:       "contact",
		Keywords: []string{"kontakt", "telefon", "zadzwonić", "konsultacja", "spotkanie", "umówić"},
		MinHits:  2,
		Answer: "Najszybciej umówisz się przez tę rozmowę — podaj swój numer telefonu lub email, " +
			"a nasz doradca odezwie się w ciągu jednego dnia roboczego.",
	},
}

// Match scores entries by keyword hits on the normalized message and returns
// the best entry at or above its MinHits. Deterministic and cheap, so it runs
// before any LLM call.
func Match(message string) (Entry, bool) {
	normalized := normalize(message)
	words := strings.Fields(normalized)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	var best Entry
	bestHits := 0
	for _, e := range Entries {
		hits := 0
		for _, kw := range e.Keywords {
			if wordSet[kw] {
				hits++
			}
		}
		min := e.MinHits
		if min <= 0 {
			min = 1
		}
		if hits >= min && hits > bestHits {
			best = e
			bestHits = hits
		}
	}
	return best, bestHits > 0
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '?', '!', '.', ',', ';', ':':
			return ' '
		default:
			return r
		}
	}, s)
}
