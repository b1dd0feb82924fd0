package lesson

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

// Registry provides access to courses, lessons and questions
type Registry struct {
	loader *Loader
	mu     sync.RWMutex

	courses       map[string]*domain.Course
	courseOrder   []string
	lessons       map[string]*domain.Lesson
	courseLessons map[string][]string
	questions     map[string]*domain.Question
	loaded        bool
}

// Stats summarizes loaded content
type Stats struct {
	Courses     int `json:"courses"`
	Lessons     int `json:"lessons"`
	Tests       int `json:"tests"`
	Questions   int `json:"questions"`
	Interactive int `json:"interactive_courses"`
}

// NewRegistry creates a new lesson registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader: loader,
	}
}

// Load loads all courses, lessons and questions into memory
func (r *Registry) Load() error {
	courses := make(map[string]*domain.Course)
	lessons := make(map[string]*domain.Lesson)
	courseLessons := make(map[string][]string)
	questions := make(map[string]*domain.Question)

	ids, err := r.loader.CourseIDs()
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}

	orders := make(map[string]int, len(ids))
	for _, id := range ids {
		course, order, err := r.loader.LoadCourse(id)
		if err != nil {
			return fmt.Errorf("load course %s: %w", id, err)
		}
		courses[course.ID] = course
		orders[course.ID] = order

		loaded, err := r.loader.LoadCourseLessons(course)
		if err != nil {
			return err
		}
		for _, l := range loaded {
			if prev, ok := lessons[l.ID]; ok {
				return fmt.Errorf("duplicate lesson id %s in courses %s and %s", l.ID, prev.CourseID, course.ID)
			}
			lessons[l.ID] = l
			courseLessons[course.ID] = append(courseLessons[course.ID], l.ID)
		}
	}

	order := make([]string, 0, len(courses))
	for id := range courses {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		if orders[order[i]] != orders[order[j]] {
			return orders[order[i]] < orders[order[j]]
		}
		return order[i] < order[j]
	})

	qids, err := r.loader.QuestionIDs()
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	for _, id := range qids {
		q, err := r.loader.LoadQuestion(id)
		if err != nil {
			return fmt.Errorf("load question %s: %w", id, err)
		}
		questions[q.ID] = q
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses = courses
	r.courseOrder = order
	r.lessons = lessons
	r.courseLessons = courseLessons
	r.questions = questions
	r.loaded = true
	return nil
}

// IsLoaded returns whether content has been loaded
func (r *Registry) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Courses returns all courses in catalog order
func (r *Registry) Courses() []*domain.Course {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Course, 0, len(r.courseOrder))
	for _, id := range r.courseOrder {
		out = append(out, r.courses[id])
	}
	return out
}

// Course returns a course by ID
func (r *Registry) Course(id string) (*domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	course, ok := r.courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return course, nil
}

// CourseLessons returns the lessons of a course in order
func (r *Registry) CourseLessons(courseID string) ([]*domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.courses[courseID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, courseID)
	}

	ids := r.courseLessons[courseID]
	out := make([]*domain.Lesson, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.lessons[id])
	}
	return out, nil
}

// Lesson returns a lesson by ID
func (r *Registry) Lesson(id string) (*domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}
	return lesson, nil
}

// Next returns the lesson after id in its course, or nil at the end
func (r *Registry) Next(id string) (*domain.Lesson, error) {
	return r.neighbor(id, 1)
}

// Previous returns the lesson before id in its course, or nil at the start
func (r *Registry) Previous(id string) (*domain.Lesson, error) {
	return r.neighbor(id, -1)
}

func (r *Registry) neighbor(id string, step int) (*domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}

	ids := r.courseLessons[lesson.CourseID]
	for i, lid := range ids {
		if lid != id {
			continue
		}
		j := i + step
		if j < 0 || j >= len(ids) {
			return nil, nil
		}
		return r.lessons[ids[j]], nil
	}
	return nil, nil
}

// Questions returns all practice questions ordered by number
func (r *Registry) Questions() []*domain.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Question, 0, len(r.questions))
	for _, q := range r.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// Question returns a practice question by ID
func (r *Registry) Question(id string) (*domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, id)
	}
	return q, nil
}

// Stats returns counts of loaded content
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Courses:   len(r.courses),
		Lessons:   len(r.lessons),
		Questions: len(r.questions),
	}
	for _, l := range r.lessons {
		s.Tests += len(l.Tests)
	}
	for _, c := range r.courses {
		if c.Interactive() {
			s.Interactive++
		}
	}
	return s
}
