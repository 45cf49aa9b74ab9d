package memory

import (
	"context"
	"testing"
	"time"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleBank()),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	filter := domain.QuestionFilter{SubjectArea: "MA"}

	questions, err := repo.ListQuestions(context.Background(), filter)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("expected the math question, got %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.ListQuestions(context.Background(), filter); err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	// A different filter is a different cache entry.
	if _, err := repo.ListQuestions(context.Background(), domain.QuestionFilter{SubjectArea: "SS"}); err != nil {
		t.Fatalf("list questions 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader again for new filter, got %d", loader.calls)
	}
}

func TestStaticLoaderAppliesFilter(t *testing.T) {
	loader := NewStaticQuestionLoader(sampleBank())
	public := true

	questions, err := loader.LoadQuestions(context.Background(), domain.QuestionFilter{IsPublic: &public, MinYear: 2023})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q2" {
		t.Fatalf("expected only the 2023 public question, got %+v", questions)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, filter)
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{
			ID:            "q1",
			SubjectArea:   "MA",
			Text:          "what is the sum of two and two",
			CorrectAnswer: "four",
			Distractors:   []string{"three", "five", "six"},
			IsPublic:      true,
			ImportYear:    2022,
		},
		{
			ID:            "q2",
			SubjectArea:   "SS",
			Text:          "which river runs through cairo",
			CorrectAnswer: "the nile",
			Distractors:   []string{"the congo", "the niger", "the zambezi"},
			IsPublic:      true,
			ImportYear:    2023,
		},
		{
			ID:            "q3",
			SubjectArea:   "SC",
			Text:          "what gas do plants absorb",
			CorrectAnswer: "carbon dioxide",
			Distractors:   []string{"oxygen", "nitrogen", "hydrogen"},
			IsPublic:      false,
			ImportYear:    2023,
		},
	}
}
