// Package language normalises user-supplied language filters to the
// two-letter codes the remote service reports on subtitles.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize turns "en", "EN", "eng", "en-US" or "English" into "en".
// Two-letter input is passed through lowercased, since the remote service uses
// a few non-standard codes such as "pb" for Brazilian Portuguese.
// Empty input returns "" and no error.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}
	if len(s) == 2 && isLetters(s) {
		return strings.ToLower(s), nil
	}

	if code, ok := byName(s); ok {
		return code, nil
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown language %q: %w", input, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("unknown language %q", input)
	}
	return base.String(), nil
}

// DisplayName returns the English name of a language code, or the code itself when unknown.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

var titleCaser = cases.Title(language.English)

// byName matches English language names such as "french" against the display table.
func byName(name string) (string, bool) {
	want := titleCaser.String(strings.ToLower(name))
	namer := display.English.Languages()
	for _, tag := range display.Supported.Tags() {
		if base, conf := tag.Base(); conf == language.Exact && namer.Name(base) == want {
			return base.String(), true
		}
	}
	return "", false
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
