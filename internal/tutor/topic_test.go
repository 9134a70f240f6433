package tutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMathRelated(t *testing.T) {
	related := []string{
		"Jak rozwiązać równanie kwadratowe?",
		"ile to 2+2",
		"Wyjaśnij twierdzenie Pitagorasa",
		"oblicz pole koła o promieniu 5",
		"x = 7",
		"Co to jest mediana?",
	}
	for _, s := range related {
		assert.True(t, isMathRelated(s, false), "expected math-related: %q", s)
	}

	unrelated := []string{
		"Opowiedz mi o drugiej wojnie światowej",
		"jaka jest twoja ulubiona piosenka",
		"napisz wypracowanie o wiośnie",
	}
	for _, s := range unrelated {
		assert.False(t, isMathRelated(s, false), "expected off-topic: %q", s)
	}
}

func TestIsMathRelatedFollowUps(t *testing.T) {
	// Short continuations in an ongoing conversation pass without
	// re-classification.
	assert.True(t, isMathRelated("tak", true))
	assert.True(t, isMathRelated("a dlaczego?", true))

	// The same text with no history is classified normally.
	assert.False(t, isMathRelated("tak", false))
}
