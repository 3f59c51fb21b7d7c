package types

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"time"
)

var ErrInvalidUser = errors.New("invalid user")

type User struct {
	ID string `json:"id"`
	// Email holds normalized addresses, primary first.
	Email     []string  `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ClerkID   string    `json:"clerk_id,omitempty"`
}

func (u User) Validate() error {
	switch {
	case u.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	case len(u.Email) == 0:
		return fmt.Errorf("%w: no email", ErrInvalidUser)
	}
	for _, e := range u.Email {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("%w: bad email %q", ErrInvalidUser, e)
		}
	}
	return nil
}

// PrimaryEmail is the address the user's recipe collection is keyed by.
func (u User) PrimaryEmail() string {
	if len(u.Email) == 0 {
		return ""
	}
	return u.Email[0]
}

// AddEmail appends a secondary address and reports whether it was new.
// The primary address never changes.
func (u *User) AddEmail(email string) bool {
	if email == "" || slices.Contains(u.Email, email) {
		return false
	}
	u.Email = append(u.Email, email)
	return true
}
