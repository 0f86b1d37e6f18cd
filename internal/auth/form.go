package auth

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

// Intent is the login/register discriminator submitted with the form.
type Intent string

const (
	IntentLogin    Intent = "login"
	IntentRegister Intent = "register"
)

const (
	minUsernameLen = 3
	minPasswordLen = 4
)

// Credentials is a submitted login form.
type Credentials struct {
	Username string
	Password string
	Type     Intent
}

// ParseCredentials reads and validates the login form fields. The returned
// Credentials echo whatever was submitted even when validation fails, so the
// form can be re-rendered.
func ParseCredentials(form url.Values) (Credentials, error) {
	creds := Credentials{
		Username: form.Get("username"),
		Password: form.Get("password"),
		Type:     Intent(form.Get("type")),
	}

	verr := &ValidationError{}
	if _, ok := form["username"]; !ok {
		verr.addField("username", "required")
	} else if n := utf8.RuneCountInString(creds.Username); n < minUsernameLen {
		verr.addField("username", fmt.Sprintf("minimum length %d", minUsernameLen))
	}
	if _, ok := form["password"]; !ok {
		verr.addField("password", "required")
	} else if n := utf8.RuneCountInString(creds.Password); n < minPasswordLen {
		verr.addField("password", fmt.Sprintf("minimum length %d", minPasswordLen))
	}
	switch creds.Type {
	case IntentLogin, IntentRegister:
	default:
		verr.addField("type", fmt.Sprintf("must be one of %q, %q", IntentLogin, IntentRegister))
	}

	if !verr.empty() {
		return creds, verr
	}
	return creds, nil
}
