package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNegative(t *testing.T) {
	for _, in := range []string{
		"No", "nope.", "Nah, I work solo", "none", "just by myself", "Alone", "  NO  ", "Trabajo por mi cuenta",
		"Nobody, just me", "Not really", "Nope-just me",
	} {
		assert.True(t, IsNegative(in), in)
	}
	for _, in := range []string{"Yes, three guys", "I have a team", "", "   "} {
		assert.False(t, IsNegative(in), in)
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, in := range []string{"yes", "Y", "Yeah!", "yep", "Sure thing", "absolutely", "Of course", "definitely", "Sí, claro"} {
		assert.True(t, IsAffirmative(in), in)
	}
	// entries match anywhere in the answer
	for _, in := range []string{"maybe", "yesterday", "I'm SURELY fine"} {
		assert.True(t, IsAffirmative(in), in)
	}
	for _, in := range []string{"there is something from 2010", "no", "", "  "} {
		assert.False(t, IsAffirmative(in), in)
	}
}

func TestInterpretBool(t *testing.T) {
	cases := []struct {
		in    string
		value bool
		ok    bool
	}{
		{"yes", true, true},
		{"Correct", true, true},
		{"I do", true, true},
		{"That’s right", true, true},
		{"no", false, true},
		{"I do not", false, true},
		{"I don't have it", false, true},
		{"never", false, true},
		{"No tengo", false, true},
		{"Tengo seguro", true, true},
		{"yes and no", false, false},
		{"it depends", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		v, ok := InterpretBool(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.value, v, tc.in)
	}
}

func TestInterpretBoolKeepsWholeWords(t *testing.T) {
	// "yesterday" and "nobody" read as yes/no to the skip rules but carry no
	// boolean meaning for the qualification record.
	_, ok := InterpretBool("yesterday")
	assert.False(t, ok)
	_, ok = InterpretBool("nobody")
	assert.False(t, ok)
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "by myself", normalizeAnswer("  By   MYSELF!! "))
	assert.Equal(t, "that's it", normalizeAnswer("That’s it."))
	assert.Equal(t, "", normalizeAnswer(" ... "))
}
