package quality

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type Rules struct {
	Cliches      []string `yaml:"cliches"`
	MedicalTerms []string `yaml:"medical_terms"`
}

var defaultRules = mustParseRules(rulesYAML)

func mustParseRules(raw []byte) Rules {
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		panic(fmt.Sprintf("quality: invalid embedded rules: %v", err))
	}
	for i, p := range r.Cliches {
		r.Cliches[i] = strings.ToLower(p)
	}
	for i, t := range r.MedicalTerms {
		r.MedicalTerms[i] = strings.ToLower(t)
	}
	return r
}

// DefaultRules returns a copy of the embedded rule lists.
func DefaultRules() Rules {
	return Rules{
		Cliches:      append([]string(nil), defaultRules.Cliches...),
		MedicalTerms: append([]string(nil), defaultRules.MedicalTerms...),
	}
}

var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1}, // zero width joiner
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x23ff, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3299, Stride: 1},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1}, // variation selector-16
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
}

func containsEmoji(s string) bool {
	for _, r := range s {
		if unicode.Is(pictographic, r) {
			return true
		}
	}
	return false
}

// Validate checks caption against the embedded rules.
func Validate(caption string, requiredVocab []string) []string {
	return defaultRules.Validate(caption, requiredVocab)
}

// Validate runs every check in order and collects all violations. An empty
// slice means the caption is compliant.
func (r Rules) Validate(caption string, requiredVocab []string) []string {
	violations := []string{}
	lower := strings.ToLower(caption)

	if containsEmoji(caption) {
		violations = append(violations, "contains emoji or pictographic characters")
	}

	for _, phrase := range r.Cliches {
		if strings.Contains(lower, phrase) {
			violations = append(violations, fmt.Sprintf("contains cliché phrase %q", phrase))
		}
	}

	for _, term := range r.MedicalTerms {
		if strings.Contains(lower, term) {
			violations = append(violations, fmt.Sprintf("contains medical claim %q", term))
		}
	}

	var missing []string
	for _, term := range requiredVocab {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(term)) {
			missing = append(missing, term)
		}
	}
	if len(missing) > 0 {
		violations = append(violations, "missing required vocabulary: "+strings.Join(missing, ", "))
	}

	return violations
}

// Compliant reports whether text passes every rule without vocabulary checks.
func Compliant(text string) bool {
	return len(Validate(text, nil)) == 0
}

// FilterHashtags splits tags into the ones that pass the rules and the ones
// that do not, keeping order.
func FilterHashtags(tags []string) (kept, dropped []string) {
	kept = make([]string, 0, len(tags))
	for _, t := range tags {
		if Compliant(t) {
			kept = append(kept, t)
		} else {
			dropped = append(dropped, t)
		}
	}
	return kept, dropped
}
