package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidEmail = errors.New("invalid email address")

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ParseEmail returns the bare, normalized address from raw. Emails end up in
// storage keys, so quoted local parts and path characters are refused even
// where RFC 5322 allows them.
func ParseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	email := NormalizeEmail(addr.Address)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, `/\"`) || strings.Contains(email, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}
