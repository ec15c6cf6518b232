package normalize

// Street type abbreviations seen in hand-written grouping names, keyed by
// their case-folded form without the trailing dot
var abbreviations = map[string]string{
	"gt":   "gate",
	"vn":   "veien",
	"v":    "vei",
	"pl":   "plass",
	"gl":   "gamle",
	"terr": "terrasse",
	"alle": "allé",
}

// expandAbbreviations replaces whole abbreviated tokens. The first token is
// never expanded so single-letter street names stay intact.
func expandAbbreviations(tokens []string) []string {
	for i := 1; i < len(tokens); i++ {
		if full, ok := abbreviations[tokens[i]]; ok {
			tokens[i] = full
		}
	}
	return tokens
}
