package input

// DigitKeys is the unshifted top row of an AZERTY keyboard. The key at
// position i (0-based) stands for the digit i+1, so '&' is 1 and '=' is 12.
const DigitKeys = `&é"'(-è_çà)=`

// KeyToggleVisibility is the key left of '&'; it shows or hides the overlay.
const KeyToggleVisibility = '²'

// ForwardedKeys are the keys the chat page passes on.
const ForwardedKeys = DigitKeys + "²"

var digitIndex = func() map[rune]int {
	m := make(map[rune]int, 12)
	i := 0
	for _, r := range DigitKeys {
		i++
		m[r] = i
	}
	return m
}()

// Digit returns the 1-based digit bound to key, or false if key is not part
// of DigitKeys.
func Digit(key rune) (int, bool) {
	d, ok := digitIndex[key]
	return d, ok
}
