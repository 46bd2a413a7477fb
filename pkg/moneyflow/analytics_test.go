package moneyflow

import "testing"

func TestWeightOfParsesBigIntVolume(t *testing.T) {
	got := weightOf("200")
	if got != 200 {
		t.Errorf("weightOf(200) = %v, want 200", got)
	}
}

func TestWeightOfInvalidReturnsZero(t *testing.T) {
	if got := weightOf("not-a-number"); got != 0 {
		t.Errorf("weightOf(invalid) = %v, want 0", got)
	}
}
