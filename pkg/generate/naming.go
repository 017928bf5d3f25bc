package generate

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identifier turns free text into an exported Go identifier: words are
// title-cased and everything but letters and digits is dropped.
func Identifier(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	// A Caser keeps state between calls, so one is made per identifier.
	titler := cases.Title(language.English, cases.NoLower)

	var b strings.Builder
	for _, word := range words {
		b.WriteString(titler.String(word))
	}

	ident := b.String()
	if ident == "" {
		return ""
	}
	if first := []rune(ident)[0]; !unicode.IsUpper(first) {
		ident = "N" + ident
	}
	return ident
}

// PackageIdent turns free text into a Go package name: lower case letters
// and digits only, never starting with a digit.
func PackageIdent(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "p" + name
	}
	return name
}

// VersionPackage names the package holding one version of a scheme.
func VersionPackage(versionTag string) string {
	if versionTag == "" {
		return "current"
	}

	var b strings.Builder
	b.WriteString("v")
	for _, r := range strings.ToLower(versionTag) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// uniqueNames hands out identifiers, suffixing repeats with a counter.
type uniqueNames map[string]int

func (u uniqueNames) claim(name string) string {
	u[name]++
	if n := u[name]; n > 1 {
		return name + "_" + strconv.Itoa(n)
	}
	return name
}
