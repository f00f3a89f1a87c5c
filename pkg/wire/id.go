package wire

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	connIDPrefix = "conn_"
)

var connIDPattern = regexp.MustCompile(`^conn_[a-zA-Z0-9]{24}$`)

// NewConnectionID generates a connection identifier with the "conn_" prefix
// followed by 24 cryptographically random alphanumeric characters. The
// identifier is assigned when a connection is accepted and stays stable for
// its lifetime.
func NewConnectionID() string {
	return connIDPrefix + randomAlphanumeric(idLength)
}

// ValidateConnectionID checks whether the given string is a valid connection
// identifier (matches "conn_" + 24 alphanumeric characters).
func ValidateConnectionID(id string) bool {
	return connIDPattern.MatchString(id)
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
