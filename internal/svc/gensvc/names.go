package gensvc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AnonymousName is used when a prompt yields no usable word.
const AnonymousName = "Anonymous Creature"

const maxNameLength = 60

// cleanName normalises a generated name: line breaks become spaces and
// surrounding punctuation is stripped. ok is false when the result is empty
// or too long to be a name.
func cleanName(s string) (_ string, ok bool) {
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
	s = strings.Trim(s, " \t-—:;.,!?")

	if s == "" || utf8.RuneCountInString(s) > maxNameLength {
		return "", false
	}

	return TitleCase(s), true
}

// nameFromWords builds a name from the first three words of prompt. Words are
// runs of letters, digits and hyphens.
func nameFromWords(prompt string) string {
	words := strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})

	if len(words) > 3 {
		words = words[:3]
	}

	for i, w := range words {
		words[i] = TitleCase(w)
	}

	if name := strings.Join(words, " "); name != "" {
		return name
	}

	return AnonymousName
}

// TitleCase uppercases the first letter and lowercases the rest of every
// letter run that starts at a word boundary.
func TitleCase(s string) string {
	var (
		sb     strings.Builder
		prev   rune
		inWord bool
	)

	sb.Grow(len(s))

	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			sb.WriteRune(r)

			inWord = false
		case inWord:
			sb.WriteRune(unicode.ToLower(r))
		case !isWordRune(prev):
			sb.WriteRune(unicode.ToUpper(r))

			inWord = true
		default:
			sb.WriteRune(r)
		}

		prev = r
	}

	return sb.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
