// Package subject composes notification subject lines.
package subject

import (
	"strings"

	"entityemailer/internal/types"
)

// Fallback is used for any (status, filing type) pair without a subject.
const Fallback = "Notification from the BC Business Registry"

// changeKinds is searched in order for the paid change-filing subject.
var changeKinds = []string{"Address", "Director"}

type subjectRule func(filingType types.FilingType) (string, bool)

func fixed(s string) subjectRule {
	return func(types.FilingType) (string, bool) { return s, true }
}

// changeConfirmation names the first change kind found in the filing type.
func changeConfirmation(filingType types.FilingType) (string, bool) {
	for _, kind := range changeKinds {
		if strings.Contains(string(filingType), kind) {
			return "Confirmation of " + kind + " Change", true
		}
	}
	return "", false
}

// rules is the (status, filing type) subject table.
var rules = map[types.FilingStatus]map[types.FilingType]subjectRule{
	types.FilingStatusPaid: {
		types.FilingTypeIncorporationApplication: fixed("Confirmation of Filing from the Business Registry"),
		types.FilingTypeChangeOfAddress:          changeConfirmation,
		types.FilingTypeChangeOfDirectors:        changeConfirmation,
		types.FilingTypeAnnualReport:             fixed("Confirmation of Annual Report"),
	},
	types.FilingStatusCompleted: {
		types.FilingTypeIncorporationApplication: fixed("Incorporation Documents from the Business Registry"),
		types.FilingTypeChangeOfAddress:          fixed("Notice of Articles"),
		types.FilingTypeChangeOfDirectors:        fixed("Notice of Articles"),
	},
}

// Base returns the subject for the pair without any legal-name prefix, and
// whether the pair is mapped. Unmapped pairs yield Fallback.
func Base(status types.FilingStatus, filingType types.FilingType) (string, bool) {
	if rule, ok := rules[status][filingType]; ok {
		if s, ok := rule(filingType); ok {
			return s, true
		}
	}
	return Fallback, false
}

// Compose returns the subject line, prefixed with "legalName - " when a
// legal name is known. The result is never empty.
func Compose(status types.FilingStatus, filingType types.FilingType, legalName string) string {
	s, _ := Base(status, filingType)
	if legalName != "" {
		return legalName + " - " + s
	}
	return s
}
