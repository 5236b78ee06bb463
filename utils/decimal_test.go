package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCeilToStep(t *testing.T) {
	cases := []struct {
		value string
		step  string
		want  string
	}{
		{"332.3333", "10", "340"},
		{"340", "10", "340"},
		{"0.01", "10", "10"},
		{"99.99", "50", "100"},
		{"125", "0", "125"},
	}
	for _, tc := range cases {
		got := CeilToStep(dec(tc.value), dec(tc.step))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("CeilToStep(%s, %s) = %s, want %s", tc.value, tc.step, got, tc.want)
		}
	}
}

func TestMaxZero(t *testing.T) {
	if got := MaxZero(dec("-3.5")); !got.IsZero() {
		t.Errorf("MaxZero(-3.5) = %s, want 0", got)
	}
	if got := MaxZero(dec("3.5")); !got.Equal(dec("3.5")) {
		t.Errorf("MaxZero(3.5) = %s, want 3.5", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	tol := decimal.NewFromFloat(0.01)
	if !WithinTolerance(dec("100"), dec("100.01"), tol) {
		t.Error("drift equal to tolerance should pass")
	}
	if WithinTolerance(dec("100"), dec("100.02"), tol) {
		t.Error("drift beyond tolerance should fail")
	}
}
