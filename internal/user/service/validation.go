package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	pkgerrors "mockinterview/pkg/errors"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || len(email) > 254 {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > 100 {
		return pkgerrors.New(pkgerrors.InvalidName)
	}
	return nil
}

// Passwords are 6-72 bytes, the most bcrypt will hash.
func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return pkgerrors.New(pkgerrors.InvalidPassword)
	}
	return nil
}
