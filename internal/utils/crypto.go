// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateDemandeNumero builds a licence request number like "LIC-2025-X7K2Q9".
func GenerateDemandeNumero(season string) (string, error) {
	year := season
	if idx := strings.Index(season, "-"); idx > 0 {
		year = season[:idx]
	}

	suffix, err := GenerateRandomString(6)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("LIC-%s-%s", year, strings.ToUpper(suffix)), nil
}
