package cryptofolio

import "testing"

func TestFormatMoney(t *testing.T) {
	testCases := []struct {
		value    float64
		currency string
		want     string
	}{
		{1234.56, "usd", "$1,234.56"},
		{1234.56, "USD", "$1,234.56"},
		{0, "usd", "$0.00"},
		{-500.5, "usd", "-$500.50"},
		// unknown codes fall back to USD
		{42, "doge", "$42.00"},
	}
	for _, tc := range testCases {
		if got := FormatMoney(tc.value, tc.currency); got != tc.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tc.value, tc.currency, got, tc.want)
		}
	}
}

func TestPercentString(t *testing.T) {
	if got := Percent(12.345).String(); got != "12.35%" {
		t.Errorf("String() = %q, want %q", got, "12.35%")
	}
	testCases := []struct {
		p    Percent
		want string
	}{
		{5, "+5.00%"},
		{-3.2, "-3.20%"},
		{0, "-"},
	}
	for _, tc := range testCases {
		if got := tc.p.SignedString(); got != tc.want {
			t.Errorf("SignedString(%v) = %q, want %q", float64(tc.p), got, tc.want)
		}
	}
}

func TestPercentEqual(t *testing.T) {
	if !Percent(10).Equal(10.00009) {
		t.Error("Equal() too strict for sub-precision difference")
	}
	if Percent(10).Equal(10.1) {
		t.Error("Equal() accepted a real difference")
	}
}
