package game_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
)

type stubCommitter struct {
	commits []domain.SessionSummary
	err     error
}

func (c *stubCommitter) CommitSession(_ context.Context, summary domain.SessionSummary) (string, error) {
	c.commits = append(c.commits, summary)
	if c.err != nil {
		return "", c.err
	}
	return "record-1", nil
}

type runOutcome struct {
	summary  domain.SessionSummary
	recordID string
	err      error
}

func TestRunnerRejectsBadPreconditions(t *testing.T) {
	fc := clockwork.NewFakeClock()

	if _, err := game.NewRunner(fc, testSettings(), nil, "p1", "", "practice", nil, nil); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions for empty list, got %v", err)
	}

	bad := testSettings()
	bad.WordsPerMinute = 0
	if _, err := game.NewRunner(fc, bad, []domain.Question{tenWordQuestion()}, "p1", "", "practice", nil, nil); err == nil {
		t.Fatalf("expected settings validation error")
	}
}

func TestRunnerAccumulatesFiveQuestionSession(t *testing.T) {
	fc := clockwork.NewFakeClock()
	subjects := []string{"SS", "MA", "SS", "MA", "SC"}
	questions := make([]domain.Question, 5)
	for i := range questions {
		q := tenWordQuestion()
		q.ID = fmt.Sprintf("q%d", i+1)
		q.SubjectArea = subjects[i]
		questions[i] = q
	}

	committer := &stubCommitter{}
	snapshots := make(chan game.Snapshot, 256)
	runner, err := game.NewRunner(fc, testSettings(), questions, "p1", "team-1", "practice", committer, func(s game.Snapshot) {
		snapshots <- s
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	results := make(chan runOutcome, 1)
	go func() {
		summary, recordID, err := runner.Run(context.Background())
		results <- runOutcome{summary, recordID, err}
	}()

	for i := 0; i < 5; i++ {
		awaitSnapshot(t, snapshots, func(s game.Snapshot) bool {
			return s.QuestionIndex == i && s.RevealedWords == 0 && s.Outcome == domain.OutcomePending
		})
		fc.Advance(400 * time.Millisecond)
		awaitSnapshot(t, snapshots, func(s game.Snapshot) bool {
			return s.QuestionIndex == i && s.RevealedWords == 1
		})
		if v := runner.Buzz("p1"); v != game.VerdictAccepted {
			t.Fatalf("question %d: expected buzz accepted, got %s", i, v)
		}
		answer := "photosynthesis"
		if i == 1 || i == 3 {
			answer = "osmosis"
		}
		if _, err := runner.Answer("p1", answer); err != nil {
			t.Fatalf("question %d: answer failed: %v", i, err)
		}
		if i < 4 {
			fc.BlockUntil(1) // the on-screen result pause
			fc.Advance(2 * time.Second)
		}
	}

	var outcome runOutcome
	select {
	case outcome = <-results:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}
	if outcome.err != nil {
		t.Fatalf("run failed: %v", outcome.err)
	}
	if outcome.recordID != "record-1" {
		t.Fatalf("expected committed record id, got %q", outcome.recordID)
	}

	summary := outcome.summary
	if summary.Score != 3 || summary.TotalAttempted != 5 {
		t.Fatalf("expected score 3/5, got %d/%d", summary.Score, summary.TotalAttempted)
	}
	if summary.Score > summary.TotalAttempted || summary.TotalAttempted > len(questions) {
		t.Fatalf("score bounds violated: %+v", summary)
	}
	if len(summary.BuzzTimes) != 5 {
		t.Fatalf("expected 5 buzz times, got %d", len(summary.BuzzTimes))
	}
	if summary.AvgBuzzTime != 0.4 {
		t.Fatalf("expected avg buzz time 0.4s, got %v", summary.AvgBuzzTime)
	}
	correctTotal := 0
	for _, count := range summary.CorrectBySubject {
		correctTotal += count
	}
	if correctTotal != 3 {
		t.Fatalf("expected correctBySubject to sum to 3, got %d (%v)", correctTotal, summary.CorrectBySubject)
	}
	if summary.CorrectBySubject["SS"] != 2 || summary.CorrectBySubject["SC"] != 1 {
		t.Fatalf("unexpected subject tallies: %v", summary.CorrectBySubject)
	}
	if summary.TotalBySubject["MA"] != 2 {
		t.Fatalf("expected 2 MA questions attempted, got %d", summary.TotalBySubject["MA"])
	}
	if len(committer.commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(committer.commits))
	}
}

func TestRunnerTimeoutLeavesBuzzTimesUntouched(t *testing.T) {
	fc := clockwork.NewFakeClock()
	question := tenWordQuestion()
	question.Text = "hello"

	snapshots := make(chan game.Snapshot, 64)
	runner, err := game.NewRunner(fc, testSettings(), []domain.Question{question}, "p1", "", "practice", nil, func(s game.Snapshot) {
		snapshots <- s
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	results := make(chan runOutcome, 1)
	go func() {
		summary, recordID, err := runner.Run(context.Background())
		results <- runOutcome{summary, recordID, err}
	}()

	awaitSnapshot(t, snapshots, func(s game.Snapshot) bool { return s.RevealedWords == 0 })
	fc.Advance(400 * time.Millisecond)
	awaitSnapshot(t, snapshots, func(s game.Snapshot) bool { return s.FullyRevealed })
	fc.Advance(9600 * time.Millisecond)

	var outcome runOutcome
	select {
	case outcome = <-results:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}
	if outcome.err != nil {
		t.Fatalf("run failed: %v", outcome.err)
	}
	summary := outcome.summary
	if summary.Score != 0 || summary.TotalAttempted != 1 {
		t.Fatalf("expected 0/1, got %d/%d", summary.Score, summary.TotalAttempted)
	}
	if len(summary.BuzzTimes) != 0 {
		t.Fatalf("expected no buzz times on a timed-out question, got %v", summary.BuzzTimes)
	}
}

func TestRunnerSurfacesCommitFailureWithSummary(t *testing.T) {
	fc := clockwork.NewFakeClock()
	question := tenWordQuestion()
	question.Text = "hello"

	committer := &stubCommitter{err: errors.New("store unavailable")}
	snapshots := make(chan game.Snapshot, 64)
	runner, err := game.NewRunner(fc, testSettings(), []domain.Question{question}, "p1", "", "practice", committer, func(s game.Snapshot) {
		snapshots <- s
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	results := make(chan runOutcome, 1)
	go func() {
		summary, recordID, err := runner.Run(context.Background())
		results <- runOutcome{summary, recordID, err}
	}()

	awaitSnapshot(t, snapshots, func(s game.Snapshot) bool { return s.RevealedWords == 0 })
	fc.Advance(400 * time.Millisecond)
	awaitSnapshot(t, snapshots, func(s game.Snapshot) bool { return s.FullyRevealed })
	if v := runner.Buzz("p1"); v != game.VerdictAccepted {
		t.Fatalf("expected buzz accepted, got %s", v)
	}
	if _, err := runner.Answer("p1", "photosynthesis"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	var outcome runOutcome
	select {
	case outcome = <-results:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not finish")
	}
	if outcome.err == nil {
		t.Fatalf("expected commit failure surfaced")
	}
	// The in-memory summary survives the failed durable write.
	if outcome.summary.Score != 1 || outcome.summary.TotalAttempted != 1 {
		t.Fatalf("expected summary despite commit failure, got %+v", outcome.summary)
	}
}
