package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCompliantCaption(t *testing.T) {
	assert.Empty(t, Validate("Discipline compounds daily.", nil))
}

func TestValidateFlagsEachCategory(t *testing.T) {
	cases := map[string]string{
		"emoji":          "Discipline compounds daily 🔥",
		"variation":      "Heart ❤️",
		"zwj":            "family\u200dtime",
		"cliche":         "Rise and GRIND every morning.",
		"medical":        "This tea is Clinically Proven to work.",
		"medical detox":  "A weekly detox ritual.",
		"cliche again":   "Never give up on the plan.",
	}
	for name, caption := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, Validate(caption, nil))
		})
	}
}

func TestValidateOrderAndBatching(t *testing.T) {
	violations := Validate("Dream big 🚀 this detox works", []string{"focus", "Works", "habit"})
	require.Len(t, violations, 4)

	assert.Contains(t, violations[0], "emoji")
	assert.Contains(t, violations[1], "dream big")
	assert.Contains(t, violations[2], "detox")
	assert.Equal(t, "missing required vocabulary: focus, habit", violations[3])
}

func TestValidateRequiredVocabCaseInsensitive(t *testing.T) {
	assert.Empty(t, Validate("Consistency builds FOCUS.", []string{"focus", " "}))
}

func TestDefaultRulesIsACopy(t *testing.T) {
	r := DefaultRules()
	require.NotEmpty(t, r.Cliches)
	r.Cliches[0] = "mutated"
	assert.NotEqual(t, "mutated", DefaultRules().Cliches[0])
}

func TestFilterHashtags(t *testing.T) {
	kept, dropped := FilterHashtags([]string{"#reading", "#dreambig🚀", "#focus", "#curesanxiety", "#nopainnogain"})

	assert.Equal(t, []string{"#reading", "#focus", "#nopainnogain"}, kept)
	assert.Equal(t, []string{"#dreambig🚀", "#curesanxiety"}, dropped)

	kept, dropped = FilterHashtags(nil)
	assert.Empty(t, kept)
	assert.Empty(t, dropped)
}

func TestCompliant(t *testing.T) {
	assert.True(t, Compliant("What are you reading this week?"))
	assert.False(t, Compliant("This cures anxiety 🙏"))
	assert.False(t, Compliant("Believe in yourself."))
}
