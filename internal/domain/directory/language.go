package directory

import (
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a language spoken by a profile owner
type Language struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	Code      string
}

func (l Language) tag() (language.Tag, bool) {
	tag, err := language.Parse(l.Code)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// English returns the language name in English, or "" for unknown codes
func (l Language) English() string {
	tag, ok := l.tag()
	if !ok {
		return ""
	}
	return display.English.Languages().Name(tag)
}

// Native returns the language name in the language itself
func (l Language) Native() string {
	tag, ok := l.tag()
	if !ok {
		return ""
	}
	return display.Self.Name(tag)
}

// ValidLanguageCode reports whether code parses as a BCP 47 tag
func ValidLanguageCode(code string) bool {
	_, err := language.Parse(code)
	return err == nil
}
