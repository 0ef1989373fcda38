package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Each recognizer inspects one user message for a single fact type and
// reports whether it found an explicit, unambiguous mention. Under-extraction
// beats mis-extraction: when in doubt, report nothing.

var squareMetersPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:m2|m²|mkw\.?|metr(?:ów|y|a)?\s+kwadratowych|metra|metrów|metry)`)

// squareMeters recognizes "55m²", "55 m2", "55 metrów kwadratowych".
func squareMeters(text string) (float64, bool) {
	m := squareMetersPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v <= 0 || v > 10000 {
		return 0, false
	}
	return v, true
}

var (
	budgetThousandsPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:k\b|tys\b\.?|tyś\b\.?|tysięcy|tysiące|tysiąca)`)
	budgetPlainPattern     = regexp.MustCompile(`(?i)(\d{4,9})\s*(?:zł|złotych|złote|pln)`)
	budgetKeywordPattern   = regexp.MustCompile(`(?i)budżet(?:em|u|owi)?\s*(?:to|wynosi|mam|:)?\s*(\d+(?:[.,]\d+)?)\s*(k\b|tys\b\.?|tysięcy)?`)
)

// budget recognizes currency-magnitude phrasing: "200k", "200 tys.",
// "250000 zł", "budżet 200000".
func budget(text string) (int, bool) {
	if m := budgetThousandsPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil && v > 0 {
			return int(v * 1000), true
		}
	}
	if m := budgetPlainPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return v, true
		}
	}
	if m := budgetKeywordPattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		if m[2] != "" {
			return int(v * 1000), true
		}
		// A bare small number after "budżet" is shorthand for thousands
		// ("budżet 200"), anything bigger is already in złoty.
		if v < 1000 {
			return int(v * 1000), true
		}
		return int(v), true
	}
	return 0, false
}

// cityVariants maps declined and lowercase surface forms to canonical city
// names. Configuration data, grown by native speakers as transcripts surface
// new forms.
var cityVariants = map[string]string{
	"warszawa": "Warszawa", "warszawy": "Warszawa", "warszawie": "Warszawa", "warszawę": "Warszawa",
	"kraków": "Kraków", "krakow": "Kraków", "krakowa": "Kraków", "krakowie": "Kraków",
	"wrocław": "Wrocław", "wroclaw": "Wrocław", "wrocławia": "Wrocław", "wroclawia": "Wrocław", "wrocławiu": "Wrocław",
	"poznań": "Poznań", "poznan": "Poznań", "poznania": "Poznań", "poznaniu": "Poznań",
	"gdańsk": "Gdańsk", "gdansk": "Gdańsk", "gdańska": "Gdańsk", "gdańsku": "Gdańsk",
	"gdynia": "Gdynia", "gdyni": "Gdynia", "gdynię": "Gdynia",
	"łódź": "Łódź", "lodz": "Łódź", "łodzi": "Łódź",
	"katowice": "Katowice", "katowic": "Katowice", "katowicach": "Katowice",
	"szczecin": "Szczecin", "szczecina": "Szczecin", "szczecinie": "Szczecin",
	"lublin": "Lublin", "lublina": "Lublin", "lublinie": "Lublin",
	"białystok": "Białystok", "białegostoku": "Białystok", "białymstoku": "Białystok",
	"bydgoszcz": "Bydgoszcz", "bydgoszczy": "Bydgoszcz",
	"sopot": "Sopot", "sopotu": "Sopot", "sopocie": "Sopot",
}

var wordPattern = regexp.MustCompile(`[\p{L}]+`)

// city recognizes a known city name in any stored declined form.
func city(text string) (string, bool) {
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if canonical, ok := cityVariants[w]; ok {
			return canonical, true
		}
	}
	return "", false
}

// packageVariants covers the NovaHouse finishing packages with their common
// declined forms.
var packageVariants = map[string]string{
	"standard": "Standard", "standardu": "Standard", "standardowy": "Standard",
	"comfort": "Comfort", "comfortu": "Comfort", "komfort": "Comfort", "komfortu": "Comfort",
	"premium": "Premium",
}

func renovationPackage(text string) (string, bool) {
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if canonical, ok := packageVariants[w]; ok {
			return canonical, true
		}
	}
	return "", false
}

// greetingTokens must never be captured as a name, even right after "jestem".
var greetingTokens = map[string]bool{
	"cześć": true, "czesc": true, "hej": true, "witam": true, "witaj": true,
	"siema": true, "hello": true, "hi": true, "dzień": true, "dobry": true,
	"dobra": true, "wieczór": true,
}

// No (?i) here: case-insensitivity would fold the \p{Lu} class and let any
// lowercase word after "jestem" pass as a name ("jestem zainteresowany").
// The capture must start with an explicit capital letter.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Nn]azywam\s+się\s+(\p{Lu}\p{Ll}+)`),
	regexp.MustCompile(`[Mm]am\s+na\s+imię\s+(\p{Lu}\p{Ll}+)`),
	regexp.MustCompile(`[Mm]oje\s+imię\s+to\s+(\p{Lu}\p{Ll}+)`),
	regexp.MustCompile(`[Jj]estem\s+(\p{Lu}\p{Ll}+)`),
}

// name recognizes only explicit self-introduction phrasing. "jestem z
// Wrocławia" introduces a city, not a name, and a bare greeting is never a
// name.
func name(text string) (string, bool) {
	for _, re := range namePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[1]
		lower := strings.ToLower(candidate)
		if greetingTokens[lower] {
			continue
		}
		// Declined city after "jestem z ..." or the city itself.
		if _, isCity := cityVariants[lower]; isCity {
			continue
		}
		if _, isPkg := packageVariants[lower]; isPkg {
			continue
		}
		return candidate, true
	}
	return "", false
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

func email(text string) (string, bool) {
	m := emailPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

var phonePattern = regexp.MustCompile(`(?:\+48[ -]?)?\d{3}[ -]?\d{3}[ -]?\d{3}\b`)

func phone(text string) (string, bool) {
	m := phonePattern.FindString(text)
	if m == "" {
		return "", false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '+' {
			return r
		}
		return -1
	}, m)
	// Nine national digits, optionally with the +48 prefix.
	stripped := strings.TrimPrefix(digits, "+48")
	if len(stripped) != 9 {
		return "", false
	}
	return digits, true
}
