package investors

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseLegacyShare converts a free-text split like "50/50" or "60/40" into
// the investor's percentage: the first figure over the sum of both. Older
// records carried only this text, so intake still accepts it.
func ParseLegacyShare(text string) (decimal.Decimal, error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return decimal.Zero, fmt.Errorf("legacy share %q is not in A/B form", text)
	}
	investor, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("legacy share %q: %w", text, err)
	}
	owner, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return decimal.Zero, fmt.Errorf("legacy share %q: %w", text, err)
	}
	if investor.IsNegative() || owner.IsNegative() {
		return decimal.Zero, fmt.Errorf("legacy share %q has a negative figure", text)
	}
	total := investor.Add(owner)
	if total.IsZero() {
		return decimal.Zero, fmt.Errorf("legacy share %q sums to zero", text)
	}
	return investor.Mul(hundred).DivRound(total, 2), nil
}
