//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseDocumentID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseDocumentID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE policy_documents;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseDocumentID(input)

		if err == nil {
			if id.IsNil() {
				t.Errorf("ParseDocumentID(%q) returned nil UUID without error", input)
			}
			roundTrip, err2 := ParseDocumentID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs ensures the three ID types validate consistently.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errDoc := ParseDocumentID(input)
		_, errRule := ParseRuleID(input)
		_, errConsent := ParseConsentID(input)

		if (errDoc == nil) != (errRule == nil) || (errDoc == nil) != (errConsent == nil) {
			t.Errorf("inconsistent validation for %q: doc=%v rule=%v consent=%v",
				input, errDoc, errRule, errConsent)
		}
	})
}
