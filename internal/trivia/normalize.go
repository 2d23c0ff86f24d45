package trivia

import (
	"math/rand/v2"

	"github.com/ashureev/quizzical/internal/domain"
	"golang.org/x/net/html"
)

// Normalize decodes HTML entities and shuffles the answers of each record.
func Normalize(records []Record, rng *rand.Rand) []domain.Question {
	questions := make([]domain.Question, 0, len(records))
	for _, r := range records {
		questions = append(questions, normalizeRecord(r, rng))
	}
	return questions
}

func normalizeRecord(r Record, rng *rand.Rand) domain.Question {
	answers := make([]string, 0, len(r.IncorrectAnswers)+1)
	answers = append(answers, html.UnescapeString(r.CorrectAnswer))
	for _, a := range r.IncorrectAnswers {
		answers = append(answers, html.UnescapeString(a))
	}

	order := Shuffle(len(answers), rng)
	shuffled := make([]string, len(answers))
	correct := 0
	for pos, from := range order {
		shuffled[pos] = answers[from]
		if from == 0 {
			correct = pos
		}
	}

	return domain.Question{
		Text:         html.UnescapeString(r.Question),
		Answers:      shuffled,
		CorrectIndex: correct,
	}
}

// Shuffle returns a Fisher-Yates permutation of 0..n-1: position i of the
// result holds the original index placed there.
func Shuffle(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
