package problem

import "errors"

// Errors returned while resolving and grading submissions.
var (
	// ErrInvalidRequest indicates a missing body or an unusable problem id.
	ErrInvalidRequest = errors.New("problem: invalid request")

	// ErrNotFound indicates no live problem exists for the id.
	ErrNotFound = errors.New("problem: not found")

	// ErrInvalidNumber indicates the submitted value is not a number.
	ErrInvalidNumber = errors.New("problem: invalid number")

	// ErrInvalidQuestionType indicates an unrecognized question type.
	ErrInvalidQuestionType = errors.New("problem: invalid question type")

	// ErrInvalidTolerance indicates the tolerance is not a number.
	ErrInvalidTolerance = errors.New("problem: invalid tolerance")
)
