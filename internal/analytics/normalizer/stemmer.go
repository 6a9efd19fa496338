package normalizer

import "strings"

// Stem applies a light rule-based suffix stemmer: common English inflections
// (plurals, -ed/-ing forms, adverbial -ly, -ness) are stripped, then a bare
// trailing "e" is dropped so that inflected and base forms land on the same
// stem ("take"/"taking" -> "tak").  It does not attempt full Porter
// semantics.  Deterministic: the same token always maps to the same stem.
func Stem(tok string) string {
	if len(tok) <= 3 {
		return tok
	}
	tok = stripSuffix(tok)
	return dropFinalE(tok)
}

// stripSuffix removes one inflectional suffix.  Order matters: longer
// suffixes first so "happiness" is not first reduced by the plural rule.
func stripSuffix(tok string) string {
	switch {
	case strings.HasSuffix(tok, "iness") && len(tok) > 6:
		return tok[:len(tok)-5] + "y" // happiness -> happy
	case strings.HasSuffix(tok, "ness") && len(tok) > 5:
		return tok[:len(tok)-4]
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y" // allergies -> allergy
	case strings.HasSuffix(tok, "sses"):
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "ing") && len(tok) > 5:
		return undouble(tok[:len(tok)-3]) // stopping -> stop
	case strings.HasSuffix(tok, "ed") && len(tok) > 4:
		return undouble(tok[:len(tok)-2]) // stopped -> stop
	case strings.HasSuffix(tok, "ly") && len(tok) > 4:
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && !strings.HasSuffix(tok, "us"):
		return tok[:len(tok)-1]
	}
	return tok
}

// dropFinalE strips a bare trailing "e" from longer stems so that base forms
// and their stripped inflections coincide.
func dropFinalE(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "e") && !strings.HasSuffix(tok, "ee") {
		return tok[:len(tok)-1]
	}
	return tok
}

// undouble collapses a trailing doubled consonant left behind by suffix
// removal, except for the consonants where doubling is part of the stem.
func undouble(stem string) string {
	n := len(stem)
	if n < 3 {
		return stem
	}
	last := stem[n-1]
	if last != stem[n-2] {
		return stem
	}
	switch last {
	case 'l', 's', 'z':
		return stem
	}
	if isVowel(rune(last)) {
		return stem
	}
	return stem[:n-1]
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
