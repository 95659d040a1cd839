// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package turkpy

import (
	"unicode"
)

const (
	// CR and LF are control characters, respectively coded 0x0D (13 decimal) and 0x0A (10 decimal).
	// Windows uses CR + LF, Unix/Mac uses LF, Classic Mac uses CR.
	// This package doesn't support Classic Mac, so stray CR characters are treated as spaces.

	// CR is 0x0D or '\r'
	CR rune = rune(13)

	// LF is 0x0A or '\n'
	LF rune = rune(10)

	// EOF is a sentinel for end of input
	EOF rune = rune(-1)
)

// isIdentStart reports whether ch may start an identifier.
// Any Unicode letter is accepted so that ğ, ı, ş, ç, ö and ü work without special cases.
func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

// isIdentPart also takes combining marks, so a decomposed ğ (g + U+0306)
// scans as one identifier.
func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) || unicode.In(ch, unicode.Mn, unicode.Mc)
}

// isDigit accepts only ASCII decimal digits; numeric literals are never localized.
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isspace(ch rune) bool {
	return ch != EOF && unicode.IsSpace(ch)
}
