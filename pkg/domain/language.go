package domain

import (
	"strings"

	dErrors "yinyom/pkg/domain-errors"
)

// Language identifies the display language of a policy document. The platform
// is bilingual Thai/English; clients frequently send full BCP 47 tags
// ("th-TH", "en-US"), which normalize to the bare primary subtag.
type Language string

const (
	LanguageThai    Language = "th"
	LanguageEnglish Language = "en"
)

// ParseLanguage normalizes and validates a language tag. "th-TH" and "TH"
// both resolve to LanguageThai; anything outside th/en is rejected.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "language cannot be empty")
	}
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	switch Language(s) {
	case LanguageThai:
		return LanguageThai, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported language %q", s)
}

func (l Language) String() string { return string(l) }
