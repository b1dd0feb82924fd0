// Package lesson loads courses, lessons and practice questions from YAML.
package lesson

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	courseFile   = "course.yaml"
	questionsDir = "questions"
)

// CourseFile represents the YAML structure for a course
type CourseFile struct {
	ID          string   `yaml:"id"`
	Order       int      `yaml:"order"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Overview    string   `yaml:"overview"`
	Difficulty  string   `yaml:"difficulty"`
	Lessons     int      `yaml:"lessons"`
	Tags        []string `yaml:"tags"`
	Progress    int      `yaml:"progress"`
	Chapters    []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		Lessons   int    `yaml:"lessons"`
		Completed int    `yaml:"completed"`
	} `yaml:"chapters"`
	LessonOrder []string `yaml:"lesson_order"`
}

// LessonFile represents the YAML structure for a lesson
type LessonFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
	Chapter     string `yaml:"chapter"`
	Difficulty  string `yaml:"difficulty"`
	Problem     struct {
		Statement   string        `yaml:"statement"`
		Examples    []ExampleFile `yaml:"examples"`
		Constraints []string      `yaml:"constraints"`
		Language    string        `yaml:"language"`
		StarterCode string        `yaml:"starter_code"`
	} `yaml:"problem"`
	Tests []struct {
		Name           string `yaml:"name"`
		Input          string `yaml:"input"`
		ExpectedOutput string `yaml:"expected_output"`
		Hidden         bool   `yaml:"hidden"`
	} `yaml:"tests"`
	Harness *struct {
		Match    string `yaml:"match"`
		Template string `yaml:"template"`
	} `yaml:"harness"`
	Compare  string   `yaml:"compare"`
	Hints    []string `yaml:"hints"`
	Solution string   `yaml:"solution"`
}

// ExampleFile is an example in lesson and question files
type ExampleFile struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	Explanation string `yaml:"explanation"`
}

// QuestionFile represents the YAML structure for a practice question
type QuestionFile struct {
	ID          string            `yaml:"id"`
	Number      int               `yaml:"number"`
	Title       string            `yaml:"title"`
	Difficulty  string            `yaml:"difficulty"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Examples    []ExampleFile     `yaml:"examples"`
	Constraints []string          `yaml:"constraints"`
	StarterCode map[string]string `yaml:"starter_code"`
	TestCases   []struct {
		Input  string `yaml:"input"`
		Output string `yaml:"output"`
	} `yaml:"test_cases"`
	Premium   bool     `yaml:"premium"`
	Companies []string `yaml:"companies"`
	Likes     int      `yaml:"likes"`
	Dislikes  int      `yaml:"dislikes"`
}

// Loader reads content from a file system laid out as
// <course>/course.yaml, <course>/<lesson>.yaml and questions/<id>.yaml
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a new lesson loader
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadCourse loads a course definition
func (l *Loader) LoadCourse(courseID string) (*domain.Course, int, error) {
	var cf CourseFile
	if err := l.decode(path.Join(courseID, courseFile), &cf); err != nil {
		return nil, 0, err
	}
	if cf.ID == "" {
		cf.ID = courseID
	}

	course := &domain.Course{
		ID:          cf.ID,
		Title:       cf.Title,
		Description: cf.Description,
		Overview:    cf.Overview,
		Difficulty:  domain.Difficulty(cf.Difficulty),
		Lessons:     cf.Lessons,
		Tags:        cf.Tags,
		Progress:    cf.Progress,
		LessonIDs:   cf.LessonOrder,
	}
	for _, ch := range cf.Chapters {
		course.Chapters = append(course.Chapters, domain.Chapter{
			ID:        ch.ID,
			Title:     ch.Title,
			Lessons:   ch.Lessons,
			Completed: ch.Completed,
		})
	}

	return course, cf.Order, nil
}

// LoadLesson loads a single lesson of a course
func (l *Loader) LoadLesson(courseID, lessonID string) (*domain.Lesson, error) {
	var lf LessonFile
	if err := l.decode(path.Join(courseID, lessonID+".yaml"), &lf); err != nil {
		return nil, err
	}
	if lf.ID == "" {
		lf.ID = lessonID
	}

	lesson := &domain.Lesson{
		ID:          lf.ID,
		CourseID:    courseID,
		Chapter:     lf.Chapter,
		Title:       lf.Title,
		Description: lf.Description,
		Content:     lf.Content,
		Difficulty:  domain.Difficulty(lf.Difficulty),
		Problem: domain.Problem{
			Statement:   lf.Problem.Statement,
			Examples:    convertExamples(lf.Problem.Examples),
			Constraints: lf.Problem.Constraints,
			StarterCode: lf.Problem.StarterCode,
			Language:    lf.Problem.Language,
		},
		Solution: lf.Solution,
		Hints:    lf.Hints,
		Compare:  domain.ComparePolicy(lf.Compare),
	}

	if !lesson.Compare.IsValid() {
		return nil, fmt.Errorf("lesson %s: unknown compare policy %q", lf.ID, lf.Compare)
	}
	if lf.Harness != nil {
		lesson.Harness = &domain.Harness{
			Match:    lf.Harness.Match,
			Template: lf.Harness.Template,
		}
	}

	lesson.Tests = make([]domain.TestCase, len(lf.Tests))
	for i, t := range lf.Tests {
		lesson.Tests[i] = domain.TestCase{
			Name:           t.Name,
			Input:          t.Input,
			ExpectedOutput: t.ExpectedOutput,
			IsHidden:       t.Hidden,
		}
	}

	return lesson, nil
}

// LoadCourseLessons loads every lesson listed in a course's lesson order
func (l *Loader) LoadCourseLessons(course *domain.Course) ([]*domain.Lesson, error) {
	lessons := make([]*domain.Lesson, 0, len(course.LessonIDs))
	for _, id := range course.LessonIDs {
		lesson, err := l.LoadLesson(course.ID, id)
		if err != nil {
			return nil, fmt.Errorf("load lesson %s/%s: %w", course.ID, id, err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// LoadQuestion loads a single practice question
func (l *Loader) LoadQuestion(id string) (*domain.Question, error) {
	var qf QuestionFile
	if err := l.decode(path.Join(questionsDir, id+".yaml"), &qf); err != nil {
		return nil, err
	}
	if qf.ID == "" {
		qf.ID = id
	}

	q := &domain.Question{
		ID:          qf.ID,
		Number:      qf.Number,
		Title:       qf.Title,
		Difficulty:  domain.Difficulty(qf.Difficulty),
		Category:    qf.Category,
		Description: qf.Description,
		Examples:    convertExamples(qf.Examples),
		Constraints: qf.Constraints,
		StarterCode: qf.StarterCode,
		Companies:   qf.Companies,
		Premium:     qf.Premium,
		Likes:       qf.Likes,
		Dislikes:    qf.Dislikes,
	}

	q.TestCases = make([]domain.TestCase, len(qf.TestCases))
	for i, tc := range qf.TestCases {
		q.TestCases[i] = domain.TestCase{
			Name:           fmt.Sprintf("Test case %d", i+1),
			Input:          tc.Input,
			ExpectedOutput: tc.Output,
		}
	}

	return q, nil
}

// CourseIDs lists directories containing a course definition
func (l *Loader) CourseIDs() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == questionsDir {
			continue
		}
		if _, err := fs.Stat(l.fsys, path.Join(entry.Name(), courseFile)); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

// QuestionIDs lists the question files
func (l *Loader) QuestionIDs() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, questionsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	return ids, nil
}

func (l *Loader) decode(name string, v any) error {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func convertExamples(in []ExampleFile) []domain.Example {
	out := make([]domain.Example, len(in))
	for i, e := range in {
		out[i] = domain.Example{Input: e.Input, Output: e.Output, Explanation: e.Explanation}
	}
	return out
}
