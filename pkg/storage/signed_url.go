package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed download tokens scoped to a
// single stored filename.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign returns a download token for the filename and its expiry.
func (s *SignedURLSigner) Sign(filename string) (string, time.Time, error) {
	if filename == "" {
		return "", time.Time{}, fmt.Errorf("filename required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(filename))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := encoded + "." + ts + "." + s.signature(encoded, ts)
	return token, expiresAt, nil
}

// Verify checks the token signature and expiry and returns the filename it
// was issued for.
func (s *SignedURLSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid token format")
	}
	encoded, ts, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.signature(encoded, ts)), []byte(signature)) {
		return "", fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", fmt.Errorf("token expired")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode filename: %w", err)
	}
	return string(raw), nil
}

func (s *SignedURLSigner) signature(encoded, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
