package planning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reserved and primary category names.
const (
	CategoryIncome        = "Income"
	CategorySavings       = "Savings"
	CategoryNetSavings    = "Net Savings"
	CategoryRemainingDebt = "Remaining Debt"
	CategoryPrincipalPaid = "Principal Paid Down"
	CategoryInterestPaid  = "Interest Paid"
)

// DefaultExpenseCategories are seeded into every grid unless overridden.
var DefaultExpenseCategories = []string{
	"Housing",
	"Utilities",
	"Groceries",
	"Transportation",
	"Insurance",
	"Healthcare",
	"Entertainment",
	"Other",
}

// CanonicalCategory is the single normalization used for every category
// name the grid stores: trimmed, inner whitespace collapsed, title-cased.
// "side  GIG" and "Side gig" both become "Side Gig".
//
// Casers are stateful, so each call builds its own.
func CanonicalCategory(name string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}

// categoryKey is the comparison key for case-insensitive lookups.
func categoryKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// isReserved reports whether name is one of the computed rows.
func isReserved(name string) bool {
	switch categoryKey(name) {
	case categoryKey(CategoryNetSavings),
		categoryKey(CategoryRemainingDebt),
		categoryKey(CategoryPrincipalPaid),
		categoryKey(CategoryInterestPaid):
		return true
	}
	return false
}
