package schema

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// Snake converts the given Go name to snake_case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
//	UserIDs  => user_ids
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous is lowercase (cases like: "UserInfo"), or next letter is also
		// a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// TableName returns the default table name for a Go type name.
//
//	Item        => items
//	MyTestTable => my_test_tables
func TableName(typeName string) string {
	return inflect.Pluralize(Snake(typeName))
}
