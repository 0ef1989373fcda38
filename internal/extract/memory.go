package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FactKey identifies one slot of the per-conversation client memory. The set
// is closed; recognizers only ever write these keys.
type FactKey string

const (
	FactName         FactKey = "name"
	FactCity         FactKey = "city"
	FactSquareMeters FactKey = "square_meters"
	FactPackage      FactKey = "package"
	FactEmail        FactKey = "email"
	FactPhone        FactKey = "phone"
	FactBudget       FactKey = "budget"
)

// Memory holds the facts learned about one client, keyed by FactKey. Values
// are typed per key: float64 for square_meters, int for budget, string for
// the rest. Facts are only ever written from an explicit, confidently parsed
// mention in a user message.
type Memory map[FactKey]any

// Clone returns a shallow copy so callers can merge without aliasing.
func (m Memory) Clone() Memory {
	out := make(Memory, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String values are looked up with ok-typing so a wrong-typed slot reads as
// absent rather than panicking.
func (m Memory) StringValue(k FactKey) (string, bool) {
	v, ok := m[k]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m Memory) FloatValue(k FactKey) (float64, bool) {
	v, ok := m[k]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func (m Memory) IntValue(k FactKey) (int, bool) {
	v, ok := m[k]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// PromptBlock renders the remembered facts as a short block for the system
// prompt, one line per known fact. The client's name gets vocative declension
// so the model can address them naturally.
func PromptBlock(m Memory) string {
	if len(m) == 0 {
		return ""
	}

	var lines []string
	if name, ok := m.StringValue(FactName); ok {
		lines = append(lines, fmt.Sprintf("Klient ma na imię %s (zwracaj się: %s).", name, Vocative(name)))
	}
	if city, ok := m.StringValue(FactCity); ok {
		lines = append(lines, "Klient jest z miasta "+city+".")
	}
	if sqm, ok := m.FloatValue(FactSquareMeters); ok {
		lines = append(lines, fmt.Sprintf("Metraż mieszkania: %s m2.", formatFloat(sqm)))
	}
	if budget, ok := m.IntValue(FactBudget); ok {
		lines = append(lines, fmt.Sprintf("Budżet klienta: %d zł.", budget))
	}
	if pkg, ok := m.StringValue(FactPackage); ok {
		lines = append(lines, "Interesuje go pakiet "+pkg+".")
	}
	if email, ok := m.StringValue(FactEmail); ok {
		lines = append(lines, "Email kontaktowy: "+email+".")
	}
	if phone, ok := m.StringValue(FactPhone); ok {
		lines = append(lines, "Telefon kontaktowy: "+phone+".")
	}

	return "Zapamiętane fakty o kliencie:\n- " + strings.Join(lines, "\n- ")
}

// UnmarshalJSON restores per-key value types; plain JSON decoding would turn
// the budget into a float64 and break typed reads.
func (m *Memory) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Memory, len(raw))
	for k, v := range raw {
		key := FactKey(k)
		switch key {
		case FactBudget:
			if f, ok := v.(float64); ok {
				out[key] = int(f)
			}
		case FactSquareMeters:
			if f, ok := v.(float64); ok {
				out[key] = f
			}
		default:
			if s, ok := v.(string); ok {
				out[key] = s
			}
		}
	}
	*m = out
	return nil
}

// Keys returns the present fact keys in stable order, mostly for logs.
func (m Memory) Keys() []FactKey {
	keys := make([]FactKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
