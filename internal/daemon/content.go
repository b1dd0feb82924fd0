package daemon

import (
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

// Content handlers

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.registry.Courses()

	result := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		completed, total := c.Completion()
		result = append(result, map[string]interface{}{
			"id":          c.ID,
			"title":       c.Title,
			"description": c.Description,
			"difficulty":  c.Difficulty,
			"lessons":     c.Lessons,
			"tags":        c.Tags,
			"progress":    c.Progress,
			"interactive": c.Interactive(),
			"completed":   completed,
			"total":       total,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"courses": result,
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.registry.Course(r.PathValue("course"))
	if err != nil {
		s.serviceError(w, "course not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, course)
}

func (s *Server) handleListCourseLessons(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("course")

	lessons, err := s.registry.CourseLessons(courseID)
	if err != nil {
		s.serviceError(w, "course not found", err)
		return
	}

	result := make([]map[string]interface{}, 0, len(lessons))
	for _, l := range lessons {
		result = append(result, map[string]interface{}{
			"id":          l.ID,
			"title":       l.Title,
			"description": l.Description,
			"difficulty":  l.Difficulty,
			"language":    l.Problem.Language,
			"tests":       len(l.Tests),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"course_id": courseID,
		"lessons":   result,
	})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	l, err := s.registry.Lesson(id)
	if err != nil {
		s.serviceError(w, "lesson not found", err)
		return
	}

	view := *l
	view.Tests = l.VisibleTests()
	if show, _ := strconv.ParseBool(r.URL.Query().Get("solution")); !show {
		view.Solution = ""
	}

	next, _ := s.registry.Next(id)
	prev, _ := s.registry.Previous(id)

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"lesson":   view,
		"next":     lessonID(next),
		"previous": lessonID(prev),
	})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	category := r.URL.Query().Get("category")

	result := make([]map[string]interface{}, 0)
	for _, q := range s.registry.Questions() {
		if difficulty != "" && string(q.Difficulty) != difficulty {
			continue
		}
		if category != "" && q.Category != category {
			continue
		}
		result = append(result, map[string]interface{}{
			"id":         q.ID,
			"number":     q.Number,
			"title":      q.Title,
			"difficulty": q.Difficulty,
			"category":   q.Category,
			"premium":    q.Premium,
			"languages":  q.Languages(),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"questions": result,
	})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.registry.Question(r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "question not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, q)
}

func lessonID(l *domain.Lesson) string {
	if l == nil {
		return ""
	}
	return l.ID
}
