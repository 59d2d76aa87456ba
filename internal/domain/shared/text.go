package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	arabicVariants = strings.NewReplacer(
		"أ", "ا", "إ", "ا", "آ", "ا",
		"ى", "ي",
		"ـ", "", // tatweel
	)
	separators = strings.NewReplacer("-", " ", "_", " ")
)

// FoldText reduces free text to a comparison key: NFKC normalised, case folded,
// Arabic letter variants unified, '-' and '_' treated as spaces and runs of
// whitespace collapsed.
func FoldText(raw string) string {
	s := norm.NFKC.String(raw)
	s = cases.Fold().String(s) // a Caser is stateful, so one per call
	s = arabicVariants.Replace(s)
	s = separators.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
