package templates

import (
	"regexp"
	"strings"

	"entityemailer/internal/types"
)

// wordPattern matches a letter followed by everything up to the next
// upper-case letter.
var wordPattern = regexp.MustCompile(`[a-zA-Z][^A-Z]*`)

// HumanizeFilingType turns a camelCase filing type into words:
// "changeOfDirectors" becomes "Change Of Directors".
func HumanizeFilingType(filingType types.FilingType) string {
	s := string(filingType)
	if s == "" {
		return ""
	}
	head := strings.ToUpper(s[:1])
	rest := wordPattern.FindAllString(s[1:], -1)
	return head + strings.Join(rest, " ")
}
