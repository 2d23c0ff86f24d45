package quiz

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ashureev/quizzical/internal/trivia"
	"github.com/google/uuid"
)

// ChangeFunc is called with the new state after every change.
type ChangeFunc func(State)

// Controller drives one quiz session. Methods are safe for concurrent use.
type Controller struct {
	source   trivia.Source
	logger   *slog.Logger
	onChange ChangeFunc

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	subs   map[int]chan State
	nextID int
	closed bool
}

// NewController creates a controller starting from initial.
func NewController(source trivia.Source, initial State, onChange ChangeFunc, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if initial.Selections == nil {
		initial.Selections = map[int]int{}
	}
	initial.Pending = ""
	return &Controller{
		source:   source,
		logger:   logger,
		onChange: onChange,
		state:    initial,
		subs:     make(map[int]chan State),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start fetches a fresh batch of questions and enters the quiz screen.
// It serves both start and play again, and returns ErrQuizInProgress
// before the current quiz is graded. A newer Start cancels this one's
// fetch; the superseded call returns nil without touching state.
func (c *Controller) Start(ctx context.Context) error {
	round := uuid.NewString()
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.state.CanStart() {
		c.mu.Unlock()
		return ErrQuizInProgress
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.applyLocked(StartRequested{Round: round})
	c.mu.Unlock()

	questions, err := c.source.Fetch(fetchCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state.Pending != round {
		c.logger.Debug("Discarding superseded quiz round", "round", round)
		return nil
	}
	c.cancel = nil

	if err != nil && fetchCtx.Err() != nil && errors.Is(err, fetchCtx.Err()) {
		c.logger.Debug("Quiz round canceled", "round", round)
		c.applyLocked(RoundCanceled{Round: round})
		return err
	}
	if err != nil {
		loadErr := ToLoadError(err)
		c.logger.Warn("Failed to load questions", "round", round, "kind", loadErr.Kind, "status", loadErr.StatusCode, "error", err)
		c.applyLocked(LoadFailed{Round: round, Err: loadErr})
		return err
	}

	c.logger.Info("Quiz round loaded", "round", round, "questions", len(questions))
	c.applyLocked(QuestionsLoaded{Round: round, Questions: questions})
	return nil
}

// Select records answer as the pick for question.
func (c *Controller) Select(question, answer int) State {
	return c.apply(AnswerSelected{Question: question, Answer: answer})
}

// Check grades the session.
func (c *Controller) Check() State {
	return c.apply(AnswersChecked{})
}

// DismissError clears the error banner.
func (c *Controller) DismissError() State {
	return c.apply(ErrorDismissed{})
}

// Subscribe returns a channel that receives the latest state after each
// change. Slow readers only see the most recent state.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels any in-flight fetch and closes all subscriptions. Later
// events are dropped so nothing is snapshotted after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Controller) apply(ev Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(ev)
	return c.state
}

func (c *Controller) applyLocked(ev Event) {
	if c.closed {
		return
	}
	next := Reduce(c.state, ev)
	if sameState(c.state, next) {
		return
	}
	c.state = next

	if c.onChange != nil {
		c.onChange(next)
	}
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

// sameState reports whether Reduce left the state untouched.
func sameState(a, b State) bool {
	if a.Screen != b.Screen || a.Graded != b.Graded || a.Pending != b.Pending || a.Err != b.Err {
		return false
	}
	if len(a.Questions) != len(b.Questions) || (len(a.Questions) > 0 && &a.Questions[0] != &b.Questions[0]) {
		return false
	}
	if len(a.Selections) != len(b.Selections) {
		return false
	}
	for k, v := range a.Selections {
		if bv, ok := b.Selections[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

var (
	// ErrClosed is returned by Start on a closed controller.
	ErrClosed = errors.New("quiz controller closed")
	// ErrQuizInProgress is returned by Start while an ungraded quiz is shown.
	ErrQuizInProgress = errors.New("quiz in progress")
)

// ToLoadError classifies a fetch error for display.
func ToLoadError(err error) LoadError {
	var netErr *trivia.NetworkError
	if errors.As(err, &netErr) {
		return LoadError{Kind: ErrorKindNetwork, StatusCode: netErr.StatusCode, Message: netErr.Error()}
	}
	var parseErr *trivia.ParseError
	if errors.As(err, &parseErr) {
		return LoadError{Kind: ErrorKindParse, Message: parseErr.Error()}
	}
	return LoadError{Kind: ErrorKindUnknown, Message: err.Error()}
}
