package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

func TestLessonSuite(t *testing.T) {
	l := &domain.Lesson{
		ID:      "and-gate",
		Problem: domain.Problem{Language: "verilog"},
		Tests:   []domain.TestCase{{Name: "t1", Input: "a=1, b=1", ExpectedOutput: "out=1"}},
		Compare: domain.CompareContains,
	}

	suite, err := LessonSuite(l, "module and_gate; endmodule")
	if err != nil {
		t.Fatalf("LessonSuite() error = %v", err)
	}
	if suite.Language != "verilog" || suite.Compare != domain.CompareContains || len(suite.Tests) != 1 {
		t.Errorf("suite = %+v", suite)
	}
	if suite.StdinFromInput {
		t.Error("lesson suites should not pass input on stdin")
	}

	if _, err := LessonSuite(&domain.Lesson{}, "x"); !errors.Is(err, domain.ErrNoTestCases) {
		t.Errorf("LessonSuite(no tests) error = %v; want ErrNoTestCases", err)
	}
}

func TestQuestionSuite(t *testing.T) {
	q := &domain.Question{
		ID:        "two-sum",
		TestCases: []domain.TestCase{{Name: "Test case 1", Input: "[2,7,11,15]\n9", ExpectedOutput: "[0,1]"}},
	}

	tests := []struct {
		language    string
		want        string
		wantHarness bool
	}{
		{"", "python", true},
		{"javascript", "javascript", true},
		{"go", "go", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			suite, err := QuestionSuite(q, tt.language, "def twoSum(): pass\nfunction twoSum() {}")
			if err != nil {
				t.Fatalf("QuestionSuite() error = %v", err)
			}
			if suite.Language != tt.want {
				t.Errorf("Language = %q; want %q", suite.Language, tt.want)
			}
			if (suite.Harness != nil) != tt.wantHarness {
				t.Errorf("Harness = %v; want present=%v", suite.Harness, tt.wantHarness)
			}
			if !suite.StdinFromInput {
				t.Error("question suites should pass input on stdin")
			}
		})
	}

	if _, err := QuestionSuite(&domain.Question{}, "python", "x"); !errors.Is(err, domain.ErrNoTestCases) {
		t.Errorf("QuestionSuite(no tests) error = %v; want ErrNoTestCases", err)
	}

	_, err := QuestionSuite(q, "python", "print([0,1])")
	if !errors.Is(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), "function or class definition") {
		t.Errorf("QuestionSuite(no definition) error = %v; want ErrInvalidInput", err)
	}

	if _, err := QuestionSuite(q, "python", "  "); err != nil {
		t.Errorf("QuestionSuite(blank) error = %v; blank code is rejected at run time", err)
	}
}
