package interview

import "errors"

var (
	// ErrBusy is returned when a question generation or scoring call is already in flight
	ErrBusy = errors.New("interview: another operation is in progress")

	// ErrSessionComplete is returned for mutations after the interview was scored
	ErrSessionComplete = errors.New("interview: session is complete")

	// ErrAwaitingAnswer is returned when a new question is requested before the current one was answered
	ErrAwaitingAnswer = errors.New("interview: current question has not been answered")

	// ErrNoOpenQuestion is returned for a candidate answer when no question is waiting for one
	ErrNoOpenQuestion = errors.New("interview: no question is waiting for an answer")

	// ErrInvalidSpeaker is returned for transcript entries with an unknown speaker
	ErrInvalidSpeaker = errors.New("interview: invalid speaker")

	// ErrQuestionGeneration wraps question collaborator failures; the session is unchanged and the call may be retried
	ErrQuestionGeneration = errors.New("interview: question generation failed")

	// ErrScoring wraps scoring collaborator failures; the session stays incomplete and the call may be retried
	ErrScoring = errors.New("interview: scoring failed")
)
