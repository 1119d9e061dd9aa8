package auth

import (
	"fmt"
	"strings"
)

// Method names an authentication mechanism a client can ask for.
type Method string

const (
	MethodEmailPassword Method = "email_password"
	MethodGoogle        Method = "google"
	MethodFacebook      Method = "facebook"
)

func (m Method) String() string { return string(m) }

// ParseMethod is case-insensitive. An empty string selects email/password.
func ParseMethod(s string) (Method, error) {
	switch v := Method(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return MethodEmailPassword, nil
	case MethodEmailPassword, MethodGoogle, MethodFacebook:
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMethodNotSupported, s)
}
