package referral

import (
	"github.com/jaevor/go-nanoid"
)

const (
	codePrefix      = "REF"
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 10
	codeMaxAttempts = 5
)

// codeGenerator yields the random part of a referral code. A 10-character
// nanoid over a 36-symbol alphabet keeps the collision probability
// negligible; uniqueness is still validated at insert time.
var codeGenerator = mustCodeGenerator()

func mustCodeGenerator() func() string {
	gen, err := nanoid.CustomASCII(codeAlphabet, codeLength)
	if err != nil {
		panic(err)
	}
	return gen
}

// generateReferralCode returns a fresh referral code candidate
func generateReferralCode() string {
	return codePrefix + codeGenerator()
}
