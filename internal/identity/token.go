package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// verificationTokenTTL bounds how long an emailed verification link stays valid.
const verificationTokenTTL = 24 * time.Hour

// newVerificationToken returns the raw token handed to the mailer and the
// sha256 digest that gets stored. Only the digest ever touches the database.
func newVerificationToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate verification token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, hashVerificationToken(token), nil
}

func hashVerificationToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
