package session

import (
	"strings"
	"unicode"
)

var resetKeywords = []string{
	"stop",
	"abort",
	"reset",
	"start over",
	"never mind",
	"nevermind",
	"forget it",
	"cancel all",
	"cancel everything",
	"/cancel",
	"/stop",
	"/reset",
}

// IsResetCommand reports whether text asks to drop the conversation state.
// A keyword matches the whole text, or appears as a separate word at the
// start, the end or inside it. Multi-word phrases match anywhere.
func IsResetCommand(text string) bool {
	t := normalize(text)
	if t == "" {
		return false
	}
	for _, kw := range resetKeywords {
		switch {
		case t == kw:
			return true
		case strings.Contains(kw, " ") && strings.Contains(t, kw):
			return true
		case strings.HasPrefix(t, kw+" "),
			strings.HasSuffix(t, " "+kw),
			strings.Contains(t, " "+kw+" "):
			return true
		}
	}
	return false
}

// normalize lower-cases text, strips punctuation other than a leading
// slash and collapses whitespace.
func normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '/' && r != '\'')
	})
	return strings.Join(fields, " ")
}
