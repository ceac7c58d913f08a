// Package currency provides rounding helpers that honour the company's
// configured currency precision.
package currency

import (
	"fmt"
	"math"

	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// Rounding is the smallest representable unit of a currency, e.g. 0.01.
type Rounding float64

// NewRounding validates the configured precision.
func NewRounding(value float64) (Rounding, error) {
	if value <= 0 {
		return 0, fmt.Errorf("currency: rounding precision not resolvable: %w", shared.ErrConfiguration)
	}
	return Rounding(value), nil
}

// IsZero reports whether amount is zero within the rounding tolerance.
func (r Rounding) IsZero(amount float64) bool {
	return math.Abs(amount) < float64(r)/2
}

// Round snaps amount to the nearest currency unit.
func (r Rounding) Round(amount float64) float64 {
	if r == 0 {
		return amount
	}
	return math.Round(amount/float64(r)) * float64(r)
}
