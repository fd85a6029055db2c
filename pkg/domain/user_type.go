package domain

import (
	"strings"

	dErrors "yinyom/pkg/domain-errors"
)

// UserType labels the audience a policy document targets. Administrators may
// define arbitrary audiences ("vendor", "contractor"), so this is a validated
// open string rather than a closed enum. The well-known constants cover the
// audiences the platform ships with.
//
// Invariants:
//   - non-empty after trimming
//   - at most 64 characters
//   - lowercase ASCII letters, digits, underscore and hyphen only
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeEmployee UserType = "employee"
	UserTypePartner  UserType = "partner"
)

// ParseUserType validates external input into a UserType. The value is
// lowercased so "Customer" and "customer" name the same audience.
func ParseUserType(s string) (UserType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user type cannot be empty")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user type must be 64 characters or less")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			continue
		}
		return "", dErrors.New(dErrors.CodeInvalidInput, "user type may contain only lowercase letters, digits, underscore and hyphen")
	}
	return UserType(s), nil
}

// IsWellKnown reports whether the user type is one of the shipped audiences.
// Custom admin-defined audiences return false and are still valid.
func (u UserType) IsWellKnown() bool {
	switch u {
	case UserTypeCustomer, UserTypeEmployee, UserTypePartner:
		return true
	}
	return false
}

func (u UserType) String() string { return string(u) }
