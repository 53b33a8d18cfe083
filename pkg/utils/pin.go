package utils

import (
	"crypto/sha256"
	"fmt"
)

// GenerateMeetingPIN generates the 4-digit handoff verification code for
// a booking. The unique key should be something that differs per booking,
// like requestID + acceptance timestamp.
func GenerateMeetingPIN(uniqueKey string) string {
	h := sha256.New()
	h.Write([]byte(uniqueKey))
	hash := h.Sum(nil)

	// Get 4 bytes from the hash
	num := uint32(hash[0])<<24 | uint32(hash[1])<<16 | uint32(hash[2])<<8 | uint32(hash[3])

	// Convert hash to a 4-digit number (1000-9999)
	pin := 1000 + (num % 9000)

	return fmt.Sprintf("%04d", pin)
}
