package match

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
)

// A snapshot callback still in flight when the match completes must not
// resurrect the question on later broadcasts.
func TestLateSnapshotIgnoredAfterCompletion(t *testing.T) {
	settings := game.Settings{
		QuestionTime:        10 * time.Second,
		Hesitation:          5 * time.Second,
		WordsPerMinute:      150,
		QuestionsPerSession: 10,
	}
	record := domain.MatchRecord{
		ID:      "match-1",
		CoachID: "coach-1",
		Status:  domain.MatchWaiting,
	}
	questions := []domain.Question{{
		ID:            "q1",
		Text:          "what is the sum of two and two",
		CorrectAnswer: "four",
	}}
	session, err := NewSession(clockwork.NewFakeClock(), settings, record, questions, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if err := session.Cancel("coach-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	session.onQuestionChange(game.Snapshot{RevealedWords: 3})

	updates, cancel := session.Subscribe()
	defer cancel()
	if snap := <-updates; snap.Question != nil {
		t.Fatalf("completed match must not carry a question, got %+v", snap.Question)
	}
}
