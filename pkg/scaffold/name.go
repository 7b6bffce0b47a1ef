// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSuffix is appended to names derived from a source identifier or template path.
const DefaultSuffix = "-clone"

// ResolvedName is the raw project name chosen by ResolveName.
// It is normalized into a filesystem segment by AllocateDestination.
type ResolvedName string

// String returns the name as a plain string.
func (n ResolvedName) String() string { return string(n) }

// ResolveName derives the project name. Precedence is explicit name, then
// source identifier, then the template directory's base name.
//
// An explicit name is returned verbatim. A source identifier such as
// "git@host:org/my-proj.git" yields "my-proj-clone". A template directory
// "templates/web" yields "web-clone".
func ResolveName(explicit, source Optional[string], templateRoot string) (ResolvedName, error) {
	if name, ok := explicit.Get(); ok {
		return ResolvedName(name), nil
	}
	if id, ok := source.Get(); ok {
		return nameFromSource(id)
	}
	return nameFromTemplate(templateRoot)
}

func nameFromSource(id string) (ResolvedName, error) {
	tail := strings.TrimRight(id, "/")
	// scp-like identifiers (git@host:repo.git) have no slash before the repository
	if i := strings.LastIndexAny(tail, "/:"); i >= 0 {
		tail = tail[i+1:]
	}

	stem, _, _ := strings.Cut(tail, ".")
	if stem == "" {
		return "", &InvalidSourceIdentifierError{Identifier: id}
	}

	return ResolvedName(stem + DefaultSuffix), nil
}

func nameFromTemplate(root string) (ResolvedName, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", &InvalidTemplatePathError{Path: root}
	}

	// "." and relative roots have no meaningful base until made absolute
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidTemplatePathError{Path: root}
	}

	return ResolvedName(filepath.Base(abs) + DefaultSuffix), nil
}

// NormalizeName converts arbitrary text into a lowercase, hyphen-separated
// path segment. Letters and digits are kept as they are; a lower-case letter
// or digit followed by a capital, the last capital of an acronym followed by
// a lower-case letter, and any other character become word boundaries.
//
//	NormalizeName("My Project")   // "my-project"
//	NormalizeName("HelloWorld")   // "hello-world"
//	NormalizeName("Web3Template") // "web3-template"
//	NormalizeName("../etc")       // "etc"
func NormalizeName(raw string) (string, error) {
	runes := []rune(raw)

	var b strings.Builder
	boundary := false
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			boundary = true
			continue
		}
		if i > 0 && unicode.IsUpper(r) && startsWord(runes[i-1], runes[i+1:]) {
			boundary = true
		}
		if boundary && b.Len() > 0 {
			b.WriteByte('-')
		}
		boundary = false
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return "", &InvalidProjectNameError{Name: raw}
	}
	return cases.Lower(language.Und).String(b.String()), nil
}

// startsWord reports whether a capital letter preceded by prev and followed
// by rest begins a new word: "helloWorld", "web3Template", "HTTPServer".
func startsWord(prev rune, rest []rune) bool {
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && len(rest) > 0 && unicode.IsLower(rest[0])
}
