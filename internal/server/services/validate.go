package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatassist/internal/common"
)

// Client-facing validation messages.
const (
	MsgRegisterFieldsRequired = "Email, password, and name are required"
	MsgLoginFieldsRequired    = "Email and password are required"
	MsgInvalidEmail           = "Invalid email format"
	MsgPasswordTooShort       = "Password must be at least 6 characters long"
	MsgPasswordTooLong        = "Password must be less than 128 characters long"
	MsgPasswordWeak           = "Password must contain at least one letter and one number"
	MsgInvalidName            = "Name must be between 2 and 50 characters"
	MsgUserExists             = "User already exists with this email"
	MsgContentRequired        = "Content is required"
	MsgChatNotFound           = "Chat not found"
	MsgMessageNotFound        = "Message not found"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 128
	minNameLen     = 2
	maxNameLen     = 50
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < minPasswordLen:
		return common.NewValidationError(MsgPasswordTooShort)
	case n > maxPasswordLen:
		return common.NewValidationError(MsgPasswordTooLong)
	case !letterPattern.MatchString(password) || !digitPattern.MatchString(password):
		return common.NewValidationError(MsgPasswordWeak)
	}
	return nil
}

// ValidateName checks the trimmed name length.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < minNameLen || n > maxNameLen {
		return common.NewValidationError(MsgInvalidName)
	}
	return nil
}
