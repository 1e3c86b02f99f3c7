package services

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
)

const (
	minUserNameLen = 3
	maxUserNameLen = 50
	minPasswordLen = 6
	maxTitleLen    = 200
	maxEmailLen    = 255
)

func validateUserName(name string) *common.FieldError {
	n := utf8.RuneCountInString(name)
	if n < minUserNameLen || n > maxUserNameLen {
		return &common.FieldError{Field: "username", Message: "Username must be between 3 and 50 characters"}
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return &common.FieldError{Field: "username", Message: "Username may only contain letters, numbers, dots, dashes and underscores"}
		}
	}
	return nil
}

func validateEmail(email string) *common.FieldError {
	if utf8.RuneCountInString(email) > maxEmailLen {
		return &common.FieldError{Field: "email", Message: "Email must be at most 255 characters"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &common.FieldError{Field: "email", Message: "Please provide a valid email"}
	}
	return nil
}

func validatePassword(password string) *common.FieldError {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return &common.FieldError{Field: "password", Message: "Password must be at least 6 characters long"}
	}
	return nil
}

// normalizeTitle trims title and checks its length in runes.
func normalizeTitle(title string) (string, *common.FieldError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &common.FieldError{Field: "title", Message: "Title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", &common.FieldError{Field: "title", Message: "Title must be less than 200 characters"}
	}
	return title, nil
}

// normalizeImageURL returns nil for an absent or empty URL and the trimmed
// URL when it is absolute with a scheme and host.
func normalizeImageURL(raw *string) (*string, *common.FieldError) {
	if raw == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil, nil
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &common.FieldError{Field: "imageUrl", Message: "Image URL must be a valid URL"}
	}
	return &v, nil
}

func fieldErrors(errs ...*common.FieldError) []common.FieldError {
	var out []common.FieldError
	for _, e := range errs {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}
