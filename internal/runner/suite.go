package runner

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/harness"
)

// DefaultQuestionLanguage is used when a question submission names none
const DefaultQuestionLanguage = "python"

// LessonSuite grades code against every test case of a lesson, in the
// lesson's language and with its harness and compare policy.
func LessonSuite(l *domain.Lesson, code string) (Suite, error) {
	if len(l.Tests) == 0 {
		return Suite{}, domain.ErrNoTestCases
	}
	return Suite{
		Language: l.Problem.Language,
		Code:     code,
		Tests:    l.Tests,
		Harness:  l.Harness,
		Compare:  l.Compare,
	}, nil
}

// QuestionSuite grades code against a practice question. Inputs are also
// passed on stdin. Code that fails ValidateCode is rejected with
// ErrInvalidInput; blank code is left to Validate.
func QuestionSuite(q *domain.Question, language, code string) (Suite, error) {
	if len(q.TestCases) == 0 {
		return Suite{}, domain.ErrNoTestCases
	}
	if language == "" {
		language = DefaultQuestionLanguage
	}
	if strings.TrimSpace(code) != "" {
		if problems := ValidateCode(code, language); len(problems) > 0 {
			return Suite{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
		}
	}
	return Suite{
		Language:       language,
		Code:           code,
		Tests:          q.TestCases,
		Harness:        harness.Placeholder(language),
		StdinFromInput: true,
	}, nil
}
