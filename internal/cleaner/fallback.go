package cleaner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser normalizes free-text program and university names.
var titleCaser = cases.Title(language.English)

// universityAliases maps common shorthand to canonical institution names.
// Matched case-insensitively against the university part of the program
// text. The list covers the abbreviations that dominate the survey data;
// anything else passes through title-cased.
var universityAliases = map[string]string{
	"mit":           "Massachusetts Institute of Technology",
	"cmu":           "Carnegie Mellon University",
	"ucla":          "University of California, Los Angeles",
	"uc berkeley":   "University of California, Berkeley",
	"berkeley":      "University of California, Berkeley",
	"nyu":           "New York University",
	"usc":           "University of Southern California",
	"jhu":           "Johns Hopkins University",
	"johns hopkins": "Johns Hopkins University",
	"gatech":        "Georgia Institute of Technology",
	"georgia tech":  "Georgia Institute of Technology",
	"uiuc":          "University of Illinois Urbana-Champaign",
	"umich":         "University of Michigan",
	"ut austin":     "University of Texas at Austin",
	"mcgill":        "McGill University",
	"ubc":           "University of British Columbia",
}

// lowercaseWords are connective words kept lowercase inside title-cased
// names, matching how institutions style themselves.
var lowercaseWords = map[string]struct{}{
	"of": {}, "at": {}, "in": {}, "and": {}, "the": {}, "for": {},
}

// FallbackStandardizer produces standardized program and university names
// without the external service.
//
// Design decision: The fallback is a deterministic rule set rather than a
// bundled language model because:
//  1. The pipeline must finish even on machines without the model host
//  2. Survey program text follows a strong "Program, University" shape
//  3. Deterministic output keeps repeated runs reproducible
type FallbackStandardizer struct{}

// Standardize splits the raw program text into a standardized program and
// university pair. The split is on the last comma: everything after it is
// the institution, everything before it the program. Text without a comma
// is treated as a bare program name with no recoverable institution.
func (FallbackStandardizer) Standardize(programText string) (program, university string) {
	text := strings.TrimSpace(programText)
	if text == "" {
		return "", ""
	}

	if idx := strings.LastIndex(text, ","); idx >= 0 {
		program = normalizeName(text[:idx])
		university = normalizeUniversity(text[idx+1:])
		return program, university
	}
	return normalizeName(text), ""
}

// normalizeUniversity resolves aliases before falling back to generic
// name normalization.
func normalizeUniversity(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := universityAliases[key]; ok {
		return canonical
	}
	return normalizeName(raw)
}

// normalizeName title-cases a free-text name while keeping connective
// words and existing all-caps tokens (acronyms like "MIT" or "ECE") as
// they are.
func normalizeName(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	for i, word := range fields {
		lower := strings.ToLower(word)
		if _, keep := lowercaseWords[lower]; keep && i > 0 {
			fields[i] = lower
			continue
		}
		if word == strings.ToUpper(word) && len(word) > 1 {
			// Likely an acronym; leave untouched.
			continue
		}
		fields[i] = titleCaser.String(lower)
	}
	return strings.Join(fields, " ")
}
