package validators

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordNoLetter = errors.New("password must contain at least one letter")
	ErrPasswordNoDigit  = errors.New("password must contain at least one digit")
	ErrPasswordNoSymbol = errors.New("password must contain at least one symbol")
)

// Symbols accepted by the password policy. Anything outside this set doesn't
// count towards the symbol requirement.
const passwordSymbols = `!@#$%^&*()-_=+[]{};:,.?/`

// PasswordValidator enforces the password complexity policy: at least 8
// characters with one letter, one digit and one symbol from the fixed set.
func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	var hasLetter, hasDigit, hasSymbol bool

	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLetter {
		return ErrPasswordNoLetter
	}

	if !hasDigit {
		return ErrPasswordNoDigit
	}

	if !hasSymbol {
		return ErrPasswordNoSymbol
	}

	return nil
}
