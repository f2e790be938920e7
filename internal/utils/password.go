package utils

import (
	"crypto/rand"
	"math/big"
)

const tempPasswordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GenerateTempPassword generates a random temporary password for invited
// users who were not given one. Ambiguous characters are excluded.
func GenerateTempPassword(length int) (string, error) {
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordCharset))))
		if err != nil {
			return "", err
		}
		password[i] = tempPasswordCharset[n.Int64()]
	}
	return string(password), nil
}
