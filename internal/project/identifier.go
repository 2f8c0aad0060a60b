package project

import (
	"fmt"
	"strconv"
	"time"
)

const (
	IdentifierPrefix = "SNW"
	MaxSerial        = 999999

	serialDigits     = 6
	identifierLength = len(IdentifierPrefix) + 2 + serialDigits
)

// YearPrefix is the identifier prefix for the year containing t, e.g. "SNW25".
func YearPrefix(t time.Time) string {
	return fmt.Sprintf("%s%02d", IdentifierPrefix, t.Year()%100)
}

// FormatIdentifier renders a prefix and serial as SNWyynnnnnn.
func FormatIdentifier(prefix string, serial int) string {
	return fmt.Sprintf("%s%0*d", prefix, serialDigits, serial)
}

// ParseIdentifier splits id into its year prefix and serial. ok is false for
// anything not shaped exactly like SNW + 2 digits + 6 digits.
func ParseIdentifier(id string) (prefix string, serial int, ok bool) {
	if len(id) != identifierLength || id[:len(IdentifierPrefix)] != IdentifierPrefix {
		return "", 0, false
	}
	digits := id[len(IdentifierPrefix):]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", 0, false
		}
	}
	serial, err := strconv.Atoi(digits[2:])
	if err != nil {
		return "", 0, false
	}
	return id[:len(IdentifierPrefix)+2], serial, true
}
