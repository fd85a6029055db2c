// Package targeting decides which policy document version a given user must
// see, based on an ordered set of admin-managed rules.
package targeting

import (
	"sort"

	"yinyom/internal/targeting/models"
	"yinyom/pkg/domain"
)

// Resolution is the outcome of evaluating a rule set for one user.
type Resolution struct {
	// DocumentID is set when Matched is true.
	DocumentID domain.DocumentID
	Matched    bool
	// MatchedRule is the winning rule, nil when nothing matched.
	MatchedRule *models.Rule
	// Skipped collects malformed rules ignored during the fold so the
	// caller can log them.
	Skipped []models.Rule
}

// Resolve evaluates rules for an identity and optional group.
// This is pure domain logic - no I/O, no side effects.
//
// Rules are walked in ascending priority; ties keep their input order. The
// first match wins:
//   - specific: exact, case-sensitive match against the normalized identity
//     (normalization is the caller's job, via the identity package)
//   - group: match when the user has a group and it equals the target
//   - default: always matches; a second default in sorted order is legal but
//     unreachable
//
// No match is a normal outcome, not an error; the caller owns the fallback
// policy. The input slice is never mutated.
func Resolve(identity, userGroup string, rules []models.Rule) Resolution {
	sorted := make([]models.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	var res Resolution
	for i := range sorted {
		r := sorted[i]
		if !r.WellFormed() {
			res.Skipped = append(res.Skipped, r)
			continue
		}
		if matches(r, identity, userGroup) {
			res.DocumentID = r.DocumentID
			res.Matched = true
			res.MatchedRule = &sorted[i]
			return res
		}
	}
	return res
}

func matches(r models.Rule, identity, userGroup string) bool {
	switch r.Type {
	case models.RuleTypeSpecific:
		return r.TargetValue == identity
	case models.RuleTypeGroup:
		return userGroup != "" && r.TargetValue == userGroup
	case models.RuleTypeDefault:
		return true
	}
	return false
}
