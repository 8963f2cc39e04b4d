package utils

import "strings"

// MaskCardNumber keeps only the last four digits of a card number.
// Already-masked or short values pass through unchanged.
func MaskCardNumber(card string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, card)

	if len(digits) <= 4 {
		return card
	}
	return "**** **** **** " + digits[len(digits)-4:]
}
