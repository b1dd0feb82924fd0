package domain

import "sort"

// Lesson is a single unit of course content with an exercise and its tests.
type Lesson struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	Chapter     string     `json:"chapter,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Problem     Problem    `json:"problem"`
	Tests       []TestCase `json:"tests"`
	Solution    string     `json:"solution,omitempty"`
	Hints       []string   `json:"hints,omitempty"`

	// Harness overrides the built-in driver selection when set.
	Harness *Harness      `json:"harness,omitempty"`
	Compare ComparePolicy `json:"compare,omitempty"`
}

// Problem is the exercise statement shown alongside the editor.
type Problem struct {
	Statement   string    `json:"statement"`
	Examples    []Example `json:"examples,omitempty"`
	Constraints []string  `json:"constraints,omitempty"`
	StarterCode string    `json:"starter_code"`
	Language    string    `json:"language"`
}

// Example is an illustrative input/output pair with an optional explanation.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// TestCase is one input and the output a correct program prints for it.
// Input is opaque to the orchestrator; its shape depends on the lesson.
type TestCase struct {
	Name           string `json:"name"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden,omitempty"`
}

// Harness is a declarative driver template for a lesson.
// Match restricts the template to sources containing the given text.
type Harness struct {
	Match    string `json:"match,omitempty"`
	Template string `json:"template"`
}

// ComparePolicy controls how actual output is matched against expected output.
type ComparePolicy string

const (
	CompareExact    ComparePolicy = "exact"
	CompareContains ComparePolicy = "contains"
)

// IsValid reports whether the policy is known. The zero value means exact.
func (p ComparePolicy) IsValid() bool {
	switch p {
	case "", CompareExact, CompareContains:
		return true
	}
	return false
}

// Difficulty represents lesson difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"

	// Question and lesson difficulty
	DifficultyEasy         Difficulty = "easy"
	DifficultyMedium       Difficulty = "medium"
	DifficultyHard         Difficulty = "hard"
)

// VisibleTests returns the test cases with hidden expectations blanked.
func (l *Lesson) VisibleTests() []TestCase {
	out := make([]TestCase, len(l.Tests))
	for i, tc := range l.Tests {
		out[i] = tc
		if tc.IsHidden {
			out[i].ExpectedOutput = ""
		}
	}
	return out
}

// Course groups chapters of lessons. Progress and chapter completion are
// static content.
type Course struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Overview    string     `json:"overview,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Lessons     int        `json:"lessons"`
	Tags        []string   `json:"tags,omitempty"`
	Progress    int        `json:"progress"`
	Chapters    []Chapter  `json:"chapters,omitempty"`
	LessonIDs   []string   `json:"lesson_ids,omitempty"`
}

// Chapter is an ordered section of a course.
type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Lessons   int    `json:"lessons"`
	Completed int    `json:"completed"`
}

// Interactive reports whether the course ships runnable lessons.
func (c *Course) Interactive() bool {
	return len(c.LessonIDs) > 0
}

// Completion returns completed and total lesson counts across chapters.
func (c *Course) Completion() (completed, total int) {
	for _, ch := range c.Chapters {
		completed += ch.Completed
		total += ch.Lessons
	}
	return completed, total
}

// Question is a standalone practice problem with starter code per language.
type Question struct {
	ID          string            `json:"id"`
	Number      int               `json:"number"`
	Title       string            `json:"title"`
	Difficulty  Difficulty        `json:"difficulty"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Examples    []Example         `json:"examples,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
	StarterCode map[string]string `json:"starter_code"`
	TestCases   []TestCase        `json:"test_cases"`
	Companies   []string          `json:"companies,omitempty"`
	Premium     bool              `json:"premium,omitempty"`
	Likes       int               `json:"likes"`
	Dislikes    int               `json:"dislikes"`
}

// Languages returns the languages the question ships starter code for.
func (q *Question) Languages() []string {
	langs := make([]string, 0, len(q.StarterCode))
	for lang := range q.StarterCode {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
