// Package quiz holds the quiz session state machine: an explicit State,
// a pure Reduce function, the view model derived from it, and a
// Controller that drives one session.
package quiz

import (
	"maps"

	"github.com/ashureev/quizzical/internal/domain"
)

// Screen identifies which screen the UI shows.
type Screen string

const (
	ScreenStart Screen = "start"
	ScreenQuiz  Screen = "quiz"
)

// Error kinds surfaced to the UI.
const (
	ErrorKindNetwork = "network"
	ErrorKindParse   = "parse"
	ErrorKindUnknown = "unknown"
)

// LoadError is a failed start in a form the UI can display.
type LoadError struct {
	Kind       string `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// State is one tab's quiz session. Values are never mutated in place;
// Reduce returns a new State.
type State struct {
	Screen     Screen            `json:"screen"`
	Questions  []domain.Question `json:"questions"`
	Selections map[int]int       `json:"selections"`
	Graded     bool              `json:"graded"`
	Err        *LoadError        `json:"error,omitempty"`

	// Pending is the round id of the in-flight start, empty when idle.
	Pending string `json:"-"`
}

// NewState returns the initial start-screen state.
func NewState() State {
	return State{
		Screen:     ScreenStart,
		Selections: map[int]int{},
	}
}

// Loading reports whether a start is in flight.
func (s State) Loading() bool {
	return s.Pending != ""
}

// NumCorrect counts selections that match the correct answer.
func (s State) NumCorrect() int {
	n := 0
	for qi, ai := range s.Selections {
		if qi >= 0 && qi < len(s.Questions) && s.Questions[qi].CorrectIndex == ai {
			n++
		}
	}
	return n
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// StartRequested begins a new round. Used for both start and play again.
type StartRequested struct {
	Round string
}

// QuestionsLoaded delivers the questions for a round.
type QuestionsLoaded struct {
	Round     string
	Questions []domain.Question
}

// LoadFailed reports that a round could not be loaded.
type LoadFailed struct {
	Round string
	Err   LoadError
}

// RoundCanceled abandons a round without reporting an error.
type RoundCanceled struct {
	Round string
}

// AnswerSelected records the user's pick for a question.
type AnswerSelected struct {
	Question int
	Answer   int
}

// AnswersChecked grades the session.
type AnswersChecked struct{}

// ErrorDismissed clears the error banner.
type ErrorDismissed struct{}

func (StartRequested) isEvent()  {}
func (QuestionsLoaded) isEvent() {}
func (LoadFailed) isEvent()      {}
func (RoundCanceled) isEvent()   {}
func (AnswerSelected) isEvent()  {}
func (AnswersChecked) isEvent()  {}
func (ErrorDismissed) isEvent()  {}

// CanStart reports whether a start or play again is allowed: from the start
// screen or from a graded quiz, never mid-quiz.
func (s State) CanStart() bool {
	return s.Screen == ScreenStart || s.Graded
}

// Reduce applies ev to s and returns the resulting state. Events that are
// not valid in the current state return s unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case StartRequested:
		if !s.CanStart() {
			return s
		}
		next := s.clone()
		next.Pending = e.Round
		next.Err = nil
		return next

	case QuestionsLoaded:
		if e.Round == "" || e.Round != s.Pending {
			return s
		}
		return State{
			Screen:     ScreenQuiz,
			Questions:  e.Questions,
			Selections: map[int]int{},
		}

	case LoadFailed:
		if e.Round == "" || e.Round != s.Pending {
			return s
		}
		next := s.clone()
		next.Pending = ""
		loadErr := e.Err
		next.Err = &loadErr
		return next

	case RoundCanceled:
		if e.Round == "" || e.Round != s.Pending {
			return s
		}
		next := s.clone()
		next.Pending = ""
		return next

	case AnswerSelected:
		if s.Screen != ScreenQuiz || s.Graded {
			return s
		}
		if e.Question < 0 || e.Question >= len(s.Questions) || !s.Questions[e.Question].HasAnswer(e.Answer) {
			return s
		}
		if cur, ok := s.Selections[e.Question]; ok && cur == e.Answer {
			return s
		}
		next := s.clone()
		next.Selections[e.Question] = e.Answer
		return next

	case AnswersChecked:
		if s.Screen != ScreenQuiz || s.Graded {
			return s
		}
		next := s.clone()
		next.Graded = true
		return next

	case ErrorDismissed:
		if s.Err == nil {
			return s
		}
		next := s.clone()
		next.Err = nil
		return next
	}
	return s
}

// clone copies the mutable parts of s. Questions are immutable and shared.
func (s State) clone() State {
	next := s
	next.Selections = maps.Clone(s.Selections)
	if next.Selections == nil {
		next.Selections = map[int]int{}
	}
	return next
}
