package targeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yinyom/internal/targeting/models"
	"yinyom/pkg/domain"
)

func rule(priority int, t models.RuleType, target string, doc domain.DocumentID) models.Rule {
	return models.Rule{
		ID:          domain.NewRuleID(),
		Priority:    priority,
		Type:        t,
		TargetValue: target,
		DocumentID:  doc,
	}
}

func TestResolve_Precedence(t *testing.T) {
	docA := domain.NewDocumentID()
	docB := domain.NewDocumentID()
	rules := []models.Rule{
		rule(2, models.RuleTypeDefault, "*", docA),
		rule(1, models.RuleTypeSpecific, "X", docB),
	}

	t.Run("specific wins for its identity", func(t *testing.T) {
		res := Resolve("X", "", rules)
		require.True(t, res.Matched)
		assert.Equal(t, docB, res.DocumentID)
		assert.Equal(t, models.RuleTypeSpecific, res.MatchedRule.Type)
	})

	t.Run("default catches everyone else", func(t *testing.T) {
		res := Resolve("Y", "", rules)
		require.True(t, res.Matched)
		assert.Equal(t, docA, res.DocumentID)
	})
}

func TestResolve_SpecificIsExactMatch(t *testing.T) {
	doc := domain.NewDocumentID()
	rules := []models.Rule{rule(1, models.RuleTypeSpecific, "1-1120-34563-56-2", doc)}

	t.Run("same string matches", func(t *testing.T) {
		assert.True(t, Resolve("1-1120-34563-56-2", "", rules).Matched)
	})

	t.Run("unformatted variant does not match", func(t *testing.T) {
		assert.False(t, Resolve("1112034563562", "", rules).Matched)
	})

	t.Run("case differs, no match", func(t *testing.T) {
		rules := []models.Rule{rule(1, models.RuleTypeSpecific, "AB123456", doc)}
		assert.False(t, Resolve("ab123456", "", rules).Matched)
	})
}

func TestResolve_Groups(t *testing.T) {
	doc := domain.NewDocumentID()
	rules := []models.Rule{rule(1, models.RuleTypeGroup, "employees-bkk", doc)}

	assert.True(t, Resolve("whoever", "employees-bkk", rules).Matched)
	assert.False(t, Resolve("whoever", "employees-cnx", rules).Matched)
	assert.False(t, Resolve("whoever", "", rules).Matched, "no group never matches a group rule")
}

func TestResolve_NoMatch(t *testing.T) {
	t.Run("empty rule list", func(t *testing.T) {
		res := Resolve("X", "g", nil)
		assert.False(t, res.Matched)
		assert.Nil(t, res.MatchedRule)
	})

	t.Run("no default, nothing applies", func(t *testing.T) {
		rules := []models.Rule{rule(1, models.RuleTypeSpecific, "X", domain.NewDocumentID())}
		assert.False(t, Resolve("Y", "", rules).Matched)
	})
}

func TestResolve_StableTieBreak(t *testing.T) {
	docFirst := domain.NewDocumentID()
	docSecond := domain.NewDocumentID()
	rules := []models.Rule{
		rule(5, models.RuleTypeSpecific, "X", docFirst),
		rule(5, models.RuleTypeSpecific, "X", docSecond),
	}
	res := Resolve("X", "", rules)
	require.True(t, res.Matched)
	assert.Equal(t, docFirst, res.DocumentID, "equal priority keeps input order")
}

func TestResolve_MultipleDefaults(t *testing.T) {
	docFirst := domain.NewDocumentID()
	rules := []models.Rule{
		rule(1, models.RuleTypeDefault, "*", docFirst),
		rule(2, models.RuleTypeDefault, "*", domain.NewDocumentID()),
	}
	res := Resolve("anyone", "", rules)
	require.True(t, res.Matched)
	assert.Equal(t, docFirst, res.DocumentID, "first default in sorted order wins")
}

func TestResolve_SkipsMalformedRules(t *testing.T) {
	doc := domain.NewDocumentID()
	rules := []models.Rule{
		{Priority: 1, Type: models.RuleTypeSpecific, TargetValue: "", DocumentID: doc}, // empty target
		{Priority: 2, Type: models.RuleType("bogus"), TargetValue: "X", DocumentID: doc},
		{Priority: 3, Type: models.RuleTypeDefault, TargetValue: "*"}, // nil document
		rule(4, models.RuleTypeDefault, "*", doc),
	}
	res := Resolve("X", "", rules)
	require.True(t, res.Matched)
	assert.Equal(t, doc, res.DocumentID)
	assert.Len(t, res.Skipped, 3)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	doc := domain.NewDocumentID()
	rules := []models.Rule{
		rule(9, models.RuleTypeDefault, "*", doc),
		rule(1, models.RuleTypeSpecific, "X", doc),
	}
	_ = Resolve("X", "", rules)
	assert.Equal(t, 9, rules[0].Priority, "caller slice order untouched")
	assert.Equal(t, 1, rules[1].Priority)
}

func TestNewRule_Validation(t *testing.T) {
	now := time.Now()
	doc := domain.NewDocumentID()

	t.Run("default gets conventional target", func(t *testing.T) {
		r, err := models.NewRule(domain.NewRuleID(), 1, models.RuleTypeDefault, "", doc, now)
		require.NoError(t, err)
		assert.Equal(t, "*", r.TargetValue)
	})

	t.Run("specific requires target", func(t *testing.T) {
		_, err := models.NewRule(domain.NewRuleID(), 1, models.RuleTypeSpecific, "", doc, now)
		require.Error(t, err)
	})

	t.Run("nil document rejected", func(t *testing.T) {
		_, err := models.NewRule(domain.NewRuleID(), 1, models.RuleTypeDefault, "*", domain.DocumentID{}, now)
		require.Error(t, err)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := models.NewRule(domain.NewRuleID(), 1, models.RuleType("nope"), "x", doc, now)
		require.Error(t, err)
	})
}
