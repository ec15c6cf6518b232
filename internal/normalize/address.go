package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Street number patterns: "15", "15A", "015 b"
var reStreetNumber = regexp.MustCompile(`^0*(\d+)\s*([A-Za-z]?)$`)

// Trailing number(+letter) of a stored loc3 name, e.g. "Kongens gate 15A"
var reNameSuffix = regexp.MustCompile(`^(.*?)[\s,]*(\d+)\s*([A-Za-z]?)\s*$`)

// Older loc3 names were written as "Inngang <street> <number>"
var reLegacyPrefix = regexp.MustCompile(`(?i)^\s*inngang\s+`)

var folder = cases.Fold()

// StreetNumber normalizes a street number so that " 015 a" and "15A" compare equal.
// Values that do not look like a house number are upper-cased with inner spaces removed.
func StreetNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := reStreetNumber.FindStringSubmatch(s); m != nil {
		return m[1] + strings.ToUpper(m[2])
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// LocCode normalizes a location code segment. Purely numeric values are
// zero-padded to width; anything else is only trimmed.
func LocCode(raw string, width int) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return s
	}
	code := strconv.Itoa(n)
	for len(code) < width {
		code = "0" + code
	}
	return code
}

// FormatCode renders n as a zero-padded code of the given width.
func FormatCode(n, width int) string {
	return LocCode(strconv.Itoa(n), width)
}

// StreetName cleans a street name for display: NFC form, single spaces.
func StreetName(raw string) string {
	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

// StreetNameKey returns a case-folded form of a street name for matching
// names parsed out of free text against registered street names.
func StreetNameKey(raw string) string {
	s := folder.String(StreetName(raw))
	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(expandAbbreviations(strings.Fields(b.String())), " ")
}

// ParseNameSuffix splits a grouping name into its street part and its trailing
// house number. ok is false when the name carries no trailing number.
func ParseNameSuffix(name string) (street, number string, ok bool) {
	s := reLegacyPrefix.ReplaceAllString(norm.NFC.String(name), "")
	m := reNameSuffix.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return StreetName(m[1]), StreetNumber(m[2] + m[3]), true
}

// AddressLabel joins a street name and number the way loc3 names are written.
func AddressLabel(street, number string) string {
	return strings.TrimSpace(StreetName(street) + " " + number)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
