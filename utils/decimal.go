package utils

import "github.com/shopspring/decimal"

// Money values persist at 2 decimal places; intermediates keep 4.

func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CeilToStep rounds d up to the nearest multiple of step.
// A zero or negative step returns d unchanged.
func CeilToStep(d decimal.Decimal, step decimal.Decimal) decimal.Decimal {
	if step.LessThanOrEqual(decimal.Zero) {
		return d
	}
	q := d.Div(step).Ceil()
	return q.Mul(step)
}

// MaxZero clamps negative values to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return d
}

// WithinTolerance reports whether a and b differ by no more than tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	diff := a.Sub(b)
	if diff.LessThan(decimal.Zero) {
		diff = diff.Neg()
	}
	return diff.LessThanOrEqual(tol)
}
