// Package survey is the [DOMAIN, narrow] optional collaborator: a fixed
// question registry scored by a simple rubric, producing question_results
// rows the pipeline attaches to the report when the survey flag is set.
//
// Grounded on original_source/cli/survey.py (run_survey, _apply_rubric) and
// original_source/cli/questions_loader.py's default-registry resolution,
// generalized from Python's filesystem-relative lookup into an embedded
// asset (internal/suite/definitions.go's go:embed pattern, reused here).
package survey

import (
	"embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions/default.yaml
var defaultQuestionsFS embed.FS

// Rubric scores a raw answer string into a pass/fail.
type Rubric struct {
	Type   string   `yaml:"type"`
	PassIf []string `yaml:"pass_if"`
}

// Question is one survey item.
type Question struct {
	Factor      string  `yaml:"factor"`
	Requirement string  `yaml:"requirement"`
	Question    string  `yaml:"question"`
	Rubric      *Rubric `yaml:"rubric,omitempty"`
}

// Result is one scored survey answer.
type Result struct {
	Factor       string `json:"factor"`
	Requirement  string `json:"requirement"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
	L1Pass       bool   `json:"l1_pass"`
	L2Pass       bool   `json:"l2_pass"`
	L3Pass       bool   `json:"l3_pass"`
}

// LoadDefault returns the built-in question registry.
func LoadDefault() ([]Question, error) {
	raw, err := defaultQuestionsFS.ReadFile("questions/default.yaml")
	if err != nil {
		return nil, err
	}
	var questions []Question
	if err := yaml.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Run scores questions against answers, a map keyed by either
// "factor.requirement" or bare "requirement". A question with no matching
// answer is recorded with answer "—" and passes at every level.
func Run(questions []Question, answers map[string]string) []Result {
	if len(questions) == 0 {
		return nil
	}
	out := make([]Result, 0, len(questions))
	for _, q := range questions {
		key := q.Factor + "." + q.Requirement
		answer, ok := answers[key]
		if !ok {
			answer, ok = answers[q.Requirement]
		}
		missing := !ok || answer == ""
		if missing {
			answer = "—"
		}
		l1, l2, l3 := true, true, true
		if !missing {
			l1, l2, l3 = applyRubric(q.Rubric, answer)
		}
		out = append(out, Result{
			Factor: q.Factor, Requirement: q.Requirement, QuestionText: q.Question,
			Answer: answer, L1Pass: l1, L2Pass: l2, L3Pass: l3,
		})
	}
	return out
}

func applyRubric(r *Rubric, answer string) (l1, l2, l3 bool) {
	if r == nil {
		return true, true, true
	}
	switch r.Type {
	case "", "yes_no":
		a := strings.ToLower(strings.TrimSpace(answer))
		ok := a == "yes" || a == "y" || a == "true" || a == "1"
		return ok, ok, ok
	case "choice":
		if len(r.PassIf) == 0 {
			return true, true, true
		}
		a := strings.ToLower(strings.TrimSpace(answer))
		for _, v := range r.PassIf {
			if strings.ToLower(v) == a {
				return true, true, true
			}
		}
		return false, false, false
	default:
		return true, true, true
	}
}
