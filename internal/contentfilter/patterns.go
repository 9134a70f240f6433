package contentfilter

import (
	"regexp"
	"strings"
)

// profanityBlacklist is the fixed word list checked by ContainsProfanity.
// Entries are matched whole-word and case-insensitively; `*`-obfuscated
// variants are matched literally. The list is data, not code: extend it
// here without touching the matching logic.
var profanityBlacklist = []string{
	"kurwa",
	"kurwy",
	"kurwie",
	"kurde",
	"chuj",
	"chuja",
	"chujowy",
	"chujowa",
	"pierdol",
	"pierdole",
	"pierdolony",
	"pierdolona",
	"spierdalaj",
	"wypierdalaj",
	"jebac",
	"jebać",
	"jebany",
	"jebana",
	"zajebie",
	"pojebany",
	"gówno",
	"gowno",
	"gówniany",
	"dupek",
	"cipa",
	"cipka",
	"pizda",
	"skurwysyn",
	"skurwiel",
	"suka",
	"szmata",
	"debil",
	"debilu",
	"kretyn",
	"kretynie",
	"idiota",
	"idioto",
	"k*rwa",
	"ch*j",
	"p*erdol",
	"j*bany",
}

// leetspeak substitutions applied to each blacklist word to build its
// fuzzy variant (a -> [a@4], e -> [e3], i -> [i1!], o -> [o0]).
var leetReplacer = strings.NewReplacer(
	"a", "[a@4]",
	"e", "[e3]",
	"i", "[i1!]",
	"o", "[o0]",
)

var profanityPatterns = buildProfanityPatterns(profanityBlacklist)

// Word boundaries are spelled out instead of \b: \b is ASCII-only and
// never fires next to letters like ą or ć, so words ending in a
// diacritic would go undetected.
const (
	wordStart = `(^|[^\p{L}\p{N}])`
	wordEnd   = `([^\p{L}\p{N}]|$)`
)

func buildProfanityPatterns(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words)*2)
	for _, w := range words {
		quoted := regexp.QuoteMeta(strings.ToLower(w))
		patterns = append(patterns, regexp.MustCompile(wordStart+quoted+wordEnd))
		if fuzzy := leetReplacer.Replace(quoted); fuzzy != quoted {
			patterns = append(patterns, regexp.MustCompile(wordStart+fuzzy+wordEnd))
		}
	}
	return patterns
}

// injectionPatterns cover instruction-override phrasings in English and
// Polish. Any match marks the message as a manipulation attempt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|previous\s+|prior\s+)*(instructions|commands|prompts|rules)`),
	regexp.MustCompile(`(?i)\bsystem\s*:`),
	regexp.MustCompile(`(?i)\bact\s+as\b`),
	regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)`),
	regexp.MustCompile(`(?i)\bdisregard\b`),
	regexp.MustCompile(`(?i)\boverride\b`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|your|previous)`),
	regexp.MustCompile(`(?i)new\s+instructions`),
	regexp.MustCompile(`(?i)you\s+are\s+now\b`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`),
	regexp.MustCompile(`(?i)zignoruj\s+(wszystkie\s+|poprzednie\s+|wcześniejsze\s+)*(instrukcje|polecenia|zasady)`),
	regexp.MustCompile(`(?i)zapomnij\s+o\s+(instrukcjach|zasadach|wszystkim)`),
	regexp.MustCompile(`(?i)udawaj,?\s+że\s+jesteś`),
	regexp.MustCompile(`(?i)jesteś\s+teraz\b`),
	regexp.MustCompile(`(?i)nowe\s+instrukcje`),
	regexp.MustCompile(`(?i)pomiń\s+(instrukcje|zasady|ograniczenia)`),
}

// personalInfoPatterns flag phone-number-like digit groups, bare 9-digit
// runs, e-mail addresses, URLs and Polish postal codes.
var personalInfoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{3}[-.\s]\d{3}[-.\s]\d{3}`),
	regexp.MustCompile(`\b\d{9}\b`),
	regexp.MustCompile(`(\+48[-.\s]?)?\(?\d{2,3}\)?[-.\s]\d{3}[-.\s]\d{2,4}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`(?i)(https?://|www\.)\S+`),
	regexp.MustCompile(`\b\d{2}-\d{3}\b`),
}
