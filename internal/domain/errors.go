package domain

import "errors"

// Lesson errors
var (
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// Run errors
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrNoTestCases   = errors.New("no test cases")
	ErrEmptySource   = errors.New("code cannot be empty")
	ErrRunInProgress = errors.New("run already in progress")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
