package quiz

import "fmt"

const (
	startTitle       = "Quizzical"
	startDescription = "Test your knowledge with our quiz app!"
)

// Action kinds for the main button.
const (
	ActionStart     = "start"
	ActionCheck     = "check"
	ActionPlayAgain = "play_again"
)

// View is the render model sent to the browser.
type View struct {
	Screen      Screen         `json:"screen"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Loading     bool           `json:"loading"`
	Error       *LoadError     `json:"error,omitempty"`
	Questions   []QuestionView `json:"questions"`
	Graded      bool           `json:"graded"`
	Score       *ScoreView     `json:"score,omitempty"`
	Action      ActionView     `json:"action"`
}

// QuestionView renders one question.
type QuestionView struct {
	Index   int          `json:"index"`
	Text    string       `json:"text"`
	Answers []AnswerView `json:"answers"`
}

// AnswerView renders one answer button.
type AnswerView struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Correct   bool   `json:"correct"`
	Incorrect bool   `json:"incorrect"`
	Disabled  bool   `json:"disabled"`
}

// ScoreView is the graded result line.
type ScoreView struct {
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	Text    string `json:"text"`
}

// ActionView is the main button.
type ActionView struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Render derives the view model from s.
func Render(s State) View {
	v := View{
		Screen:    s.Screen,
		Loading:   s.Loading(),
		Error:     s.Err,
		Questions: []QuestionView{},
		Graded:    s.Graded,
	}

	if s.Screen == ScreenStart {
		v.Title = startTitle
		v.Description = startDescription
		v.Action = ActionView{Kind: ActionStart, Label: "Start quiz"}
		return v
	}

	for qi, q := range s.Questions {
		sel, hasSel := s.Selections[qi]
		qv := QuestionView{Index: qi, Text: q.Text, Answers: make([]AnswerView, 0, len(q.Answers))}
		for ai, text := range q.Answers {
			selected := hasSel && sel == ai
			isCorrect := ai == q.CorrectIndex
			qv.Answers = append(qv.Answers, AnswerView{
				Index:     ai,
				Text:      text,
				Selected:  selected,
				Correct:   s.Graded && isCorrect,
				Incorrect: s.Graded && selected && !isCorrect,
				Disabled:  s.Graded,
			})
		}
		v.Questions = append(v.Questions, qv)
	}

	if s.Graded {
		v.Score = scoreView(s.NumCorrect(), len(s.Questions))
		v.Action = ActionView{Kind: ActionPlayAgain, Label: "Play again"}
	} else {
		v.Action = ActionView{Kind: ActionCheck, Label: "Check answers"}
	}
	return v
}

func scoreView(correct, total int) *ScoreView {
	return &ScoreView{
		Correct: correct,
		Total:   total,
		Text:    fmt.Sprintf("You scored %d out of %d", correct, total),
	}
}
