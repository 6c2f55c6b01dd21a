package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	caseIDPrefix = "case_"
)

var caseIDPattern = regexp.MustCompile(`^case_[a-zA-Z0-9]{24}$`)

// NewCaseID generates a new case ID with the "case_" prefix followed by
// 24 cryptographically random alphanumeric characters.
func NewCaseID() string {
	return caseIDPrefix + randomAlphanumeric(idLength)
}

// ValidateCaseID checks whether the given string is a valid case ID
// (matches "case_" + 24 alphanumeric characters).
func ValidateCaseID(id string) bool {
	return caseIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
