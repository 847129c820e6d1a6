package auth

import (
	"crypto/rand"
	"math/big"
)

// otpRange bounds generated codes to 0..999999. Codes are numbers, so
// 4821 is a valid code and is not zero-padded.
var otpRange = big.NewInt(1_000_000)

// GenerateOTP returns a random one-time code in [0, 999999]
func GenerateOTP() (int, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
