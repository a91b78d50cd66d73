package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateCode returns n random bytes as an uppercase hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateOrderReference builds the merchant-side invoice reference sent
// to a gateway: a TV prefix, the creation timestamp and a random suffix.
// It exists for gateway-side reconciliation and is NOT the idempotency
// key; that is the gateway transaction id learned at verification.
func GenerateOrderReference() string {
	suffix, err := GenerateCode(3)
	if err != nil {
		suffix = "000000"
	}
	return fmt.Sprintf("TV%d%s", time.Now().UnixMilli(), suffix)
}
