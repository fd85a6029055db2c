// Package identity validates the identifier a person presents when granting
// consent: either a 13-digit Thai national ID or a passport number.
//
// This is pure domain logic - no I/O, no side effects. Validation never
// returns a Go error; invalid input is a normal outcome reported through the
// Result so form handlers can surface it inline.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Kind classifies a validated identifier.
type Kind string

const (
	KindThaiID   Kind = "thai_id"
	KindPassport Kind = "passport"
	KindInvalid  Kind = "invalid"
)

// Passport numbers are alphanumeric within these bounds after cleaning.
const (
	passportMinLen = 6
	passportMaxLen = 15
)

// Result is the structured outcome of a validation attempt.
//
// Invariants:
//   - Valid == true implies Kind is KindThaiID or KindPassport and Err == ""
//   - Valid == false implies Kind is KindInvalid and Err is non-empty
type Result struct {
	Valid      bool
	Kind       Kind
	Normalized string
	Err        string
}

// Validate classifies and validates a raw user-entered identifier. Spaces and
// dashes are stripped before any test, so "1-1120-34563-56-2" and
// "1112034563562" are the same identity.
//
// A cleaned string of exactly 13 digits is treated as a Thai national ID
// candidate and must pass the MOD-11 checksum. Anything else is a passport
// candidate: 6 to 15 alphanumeric characters, uppercased on success.
func Validate(raw string) Result {
	cleaned := clean(raw)
	if cleaned == "" {
		return invalid("identity cannot be empty")
	}

	if len(cleaned) == 13 && allDigits(cleaned) {
		if !thaiChecksumValid(cleaned) {
			return invalid("invalid Thai ID checksum")
		}
		return Result{Valid: true, Kind: KindThaiID, Normalized: formatThaiID(cleaned)}
	}

	if len(cleaned) < passportMinLen || len(cleaned) > passportMaxLen {
		return invalid("passport number must be 6 to 15 characters")
	}
	if !allAlphanumeric(cleaned) {
		return invalid("passport number may contain only letters and digits")
	}
	return Result{Valid: true, Kind: KindPassport, Normalized: strings.ToUpper(cleaned)}
}

// Mask produces a display-safe form of a validated identity. Thai IDs keep
// only the final check digit; passports keep the last four characters. Inputs
// shorter than four characters collapse to the "****" sentinel.
func Mask(normalized string, kind Kind) string {
	if len(normalized) < 4 {
		return "****"
	}
	switch kind {
	case KindThaiID:
		return "*-****-*****-**-" + normalized[len(normalized)-1:]
	case KindPassport:
		return strings.Repeat("*", len(normalized)-4) + normalized[len(normalized)-4:]
	}
	return "****"
}

// Hash returns the SHA-256 hex digest of a normalized identity. Consent
// records store this instead of the raw identifier so lookups work without
// persisting PII.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func invalid(msg string) Result {
	return Result{Kind: KindInvalid, Err: msg}
}

func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func allAlphanumeric(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			continue
		}
		return false
	}
	return true
}

// thaiChecksumValid applies the MOD-11 check used by Thai national IDs: the
// first twelve digits are weighted 13 down to 2, and the check digit is
// (11 - sum mod 11) mod 10.
func thaiChecksumValid(digits string) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(digits[i]-'0') * (13 - i)
	}
	check := (11 - sum%11) % 10
	return check == int(digits[12]-'0')
}

// formatThaiID renders the canonical D-DDDD-DDDDD-DD-D grouping.
func formatThaiID(digits string) string {
	return digits[0:1] + "-" + digits[1:5] + "-" + digits[5:10] + "-" + digits[10:12] + "-" + digits[12:13]
}
