package tutor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// mathKeywords are Polish stems that mark a message as math-related.
// Kept as data so the vocabulary can grow without touching the check.
var mathKeywords = []string{
	"matematy",
	"równan",
	"rownan",
	"funkcj",
	"liczb",
	"oblicz",
	"wylicz",
	"policz",
	"rozwiąż",
	"rozwiaz",
	"procent",
	"ułam",
	"ulam",
	"geometri",
	"algebr",
	"trygonometr",
	"pierwiast",
	"potęg",
	"poteg",
	"logarytm",
	"wykres",
	"pochodn",
	"całk",
	"calk",
	"macierz",
	"wektor",
	"kąt",
	"trójkąt",
	"trojkat",
	"prostokąt",
	"okrąg",
	"okręg",
	"koło",
	"pole",
	"obwód",
	"obwod",
	"objętość",
	"średnia",
	"mediana",
	"prawdopodobie",
	"statysty",
	"wzór",
	"wzor",
	"zadani",
	"delt",
	"suma",
	"różnic",
	"iloczyn",
	"iloraz",
	"dzieleni",
	"mnożeni",
	"dodawani",
	"odejmowani",
	"twierdzeni",
	"pitagoras",
	"nierówność",
	"przedział",
	"zbiór",
	"ciąg",
	"granica",
}

// mathSymbols matches digits and arithmetic notation.
var mathSymbols = regexp.MustCompile(`[0-9+\-*/=<>%^√π]|\bx\b|\by\b`)

// followUpRuneLimit: short messages inside an ongoing conversation are
// treated as follow-ups ("tak", "a dlaczego?") and not re-classified.
const followUpRuneLimit = 20

// isMathRelated is the cheap pre-LLM topic check. It errs on the side
// of letting messages through; the model-side sentinel is the second
// line of defense.
func isMathRelated(text string, hasHistory bool) bool {
	if hasHistory && utf8.RuneCountInString(strings.TrimSpace(text)) <= followUpRuneLimit {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range mathKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return mathSymbols.MatchString(lower)
}
