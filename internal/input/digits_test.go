package input

import "testing"

func TestDigit(t *testing.T) {
	tests := []struct {
		key  rune
		want int
		ok   bool
	}{
		{'&', 1, true},
		{'é', 2, true},
		{'"', 3, true},
		{'\'', 4, true},
		{'(', 5, true},
		{'-', 6, true},
		{'è', 7, true},
		{'_', 8, true},
		{'ç', 9, true},
		{'à', 10, true},
		{')', 11, true},
		{'=', 12, true},
		{'1', 0, false},
		{'a', 0, false},
		{'²', 0, false},
	}

	for _, tt := range tests {
		got, ok := Digit(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Digit(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDigitKeysLength(t *testing.T) {
	if n := len([]rune(DigitKeys)); n != 12 {
		t.Fatalf("DigitKeys has %d keys, want 12", n)
	}
}
