package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault_ReturnsNonEmptyRegistry(t *testing.T) {
	questions, err := LoadDefault()
	require.NoError(t, err)
	assert.NotEmpty(t, questions)
	for _, q := range questions {
		assert.NotEmpty(t, q.Factor)
		assert.NotEmpty(t, q.Requirement)
		assert.NotEmpty(t, q.Question)
	}
}

func TestRun_YesNoRubricScoresAllLevelsTogether(t *testing.T) {
	questions := []Question{
		{Factor: "contextual", Requirement: "semantic_model_coverage", Question: "Q1", Rubric: &Rubric{Type: "yes_no"}},
	}
	results := Run(questions, map[string]string{"semantic_model_coverage": "yes"})
	require.Len(t, results, 1)
	assert.True(t, results[0].L1Pass)
	assert.True(t, results[0].L2Pass)
	assert.True(t, results[0].L3Pass)
	assert.Equal(t, "yes", results[0].Answer)
}

func TestRun_YesNoRubricFailsOnNo(t *testing.T) {
	questions := []Question{
		{Factor: "contextual", Requirement: "semantic_model_coverage", Question: "Q1", Rubric: &Rubric{Type: "yes_no"}},
	}
	results := Run(questions, map[string]string{"semantic_model_coverage": "no"})
	require.Len(t, results, 1)
	assert.False(t, results[0].L1Pass)
}

func TestRun_MissingAnswerRecordsPlaceholder(t *testing.T) {
	questions := []Question{
		{Factor: "contextual", Requirement: "semantic_model_coverage", Question: "Q1", Rubric: &Rubric{Type: "yes_no"}},
	}
	results := Run(questions, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "—", results[0].Answer)
	assert.True(t, results[0].L1Pass)
}

func TestRun_AnswerKeyedByFactorDotRequirementTakesPriority(t *testing.T) {
	questions := []Question{
		{Factor: "contextual", Requirement: "table_comment_coverage", Question: "Q1", Rubric: &Rubric{Type: "yes_no"}},
	}
	answers := map[string]string{
		"table_comment_coverage":            "no",
		"contextual.table_comment_coverage": "yes",
	}
	results := Run(questions, answers)
	require.Len(t, results, 1)
	assert.Equal(t, "yes", results[0].Answer)
	assert.True(t, results[0].L1Pass)
}

func TestRun_ChoiceRubricMatchesPassIfList(t *testing.T) {
	questions := []Question{
		{Factor: "clean", Requirement: "format_inconsistency_rate", Question: "Q1", Rubric: &Rubric{Type: "choice", PassIf: []string{"Daily", "Hourly"}}},
	}
	passResults := Run(questions, map[string]string{"format_inconsistency_rate": "daily"})
	assert.True(t, passResults[0].L1Pass)

	failResults := Run(questions, map[string]string{"format_inconsistency_rate": "Monthly"})
	assert.False(t, failResults[0].L1Pass)
}

func TestRun_NoRubricAlwaysPasses(t *testing.T) {
	questions := []Question{{Factor: "clean", Requirement: "null_rate", Question: "Q1"}}
	results := Run(questions, map[string]string{"null_rate": "whatever"})
	require.Len(t, results, 1)
	assert.True(t, results[0].L1Pass)
}

func TestRun_EmptyQuestionListReturnsNil(t *testing.T) {
	assert.Nil(t, Run(nil, nil))
}
