package domain

// Question is one normalized multiple-choice question.
// CorrectIndex points into Answers, so correctness never depends on
// comparing answer text.
type Question struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correct_index"`
}

// CorrectAnswer returns the text of the correct answer.
func (q Question) CorrectAnswer() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return ""
	}
	return q.Answers[q.CorrectIndex]
}

// HasAnswer reports whether i is a valid answer index.
func (q Question) HasAnswer(i int) bool {
	return i >= 0 && i < len(q.Answers)
}
