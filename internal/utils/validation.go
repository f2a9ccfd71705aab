package utils

import (
	"strings"
	"unicode"

	"github.com/tyler-smith/go-bip39"
)

type PasswordStrength int

const (
	PasswordWeak PasswordStrength = iota
	PasswordMedium
	PasswordStrong
)

const MinPasswordLength = 8

func (s PasswordStrength) String() string {
	switch s {
	case PasswordStrong:
		return "strong"
	case PasswordMedium:
		return "medium"
	default:
		return "weak"
	}
}

// CheckKeystorePassword grades a keystore password and lists what is
// missing. Weak passwords are refused by the keystore init command.
func CheckKeystorePassword(password string) (PasswordStrength, []string) {
	var issues []string
	if len(password) < MinPasswordLength {
		return PasswordWeak, []string{"Password must be at least 8 characters long"}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower {
		issues = append(issues, "Password should mix upper and lower case letters")
	}
	if !hasDigit {
		issues = append(issues, "Password should contain at least one number")
	}
	if !hasSpecial {
		issues = append(issues, "Password should contain at least one special character")
	}

	switch {
	case len(issues) == 0:
		return PasswordStrong, nil
	case len(issues) < 3:
		return PasswordMedium, issues
	default:
		return PasswordWeak, issues
	}
}

// SplitMnemonic normalizes whitespace and case in a typed phrase.
func SplitMnemonic(mnemonic string) []string {
	return strings.Fields(strings.ToLower(mnemonic))
}

// UnknownMnemonicWords returns the 1-based positions of words that are not
// in the BIP-39 English word list.
func UnknownMnemonicWords(words []string) []int {
	known := make(map[string]struct{}, 2048)
	for _, w := range bip39.GetWordList() {
		known[w] = struct{}{}
	}

	var bad []int
	for i, w := range words {
		if _, ok := known[w]; !ok {
			bad = append(bad, i+1)
		}
	}
	return bad
}
