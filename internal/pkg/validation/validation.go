package validation

import (
	"regexp"
	"strings"
)

// emailRe is intentionally loose: anything@anything.anything.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidSymbol accepts non-empty tickers as entered (case preserved);
// whitespace-only is rejected.
func IsValidSymbol(symbol string) bool {
	return strings.TrimSpace(symbol) != ""
}

// IsValidFlowType reports whether t is one of the known cash flow types.
func IsValidFlowType(t string) bool {
	switch t {
	case "deposit", "withdrawal", "stock_buy", "stock_sell", "dividend":
		return true
	}
	return false
}
