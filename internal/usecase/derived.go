package usecase

import "math"

// Ratio returns a/b when both operands are present and b is nonzero.
func Ratio(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	v := *a / *b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Percent scales a fraction to a percentage, propagating absence.
func Percent(frac *float64) *float64 {
	if frac == nil {
		return nil
	}
	v := *frac * 100
	return &v
}

// NetDebt is total debt minus total cash, absent if either operand is.
func NetDebt(totalDebt, totalCash *float64) *float64 {
	if totalDebt == nil || totalCash == nil {
		return nil
	}
	v := *totalDebt - *totalCash
	return &v
}

// fptr boxes a present value.
func fptr(v float64) *float64 { return &v }

// orElse returns the first non-nil value.
func orElse(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
