package game

import (
	"fmt"
	"time"
)

// Settings is the validated timing configuration for a session. All four
// fields must be positive before any timer is allowed to start.
type Settings struct {
	QuestionTime        time.Duration
	Hesitation          time.Duration
	WordsPerMinute      int
	QuestionsPerSession int
}

func (s Settings) Validate() error {
	if s.QuestionTime <= 0 {
		return fmt.Errorf("question time must be positive, got %s", s.QuestionTime)
	}
	if s.Hesitation <= 0 {
		return fmt.Errorf("hesitation time must be positive, got %s", s.Hesitation)
	}
	if s.WordsPerMinute <= 0 {
		return fmt.Errorf("words per minute must be positive, got %d", s.WordsPerMinute)
	}
	if s.QuestionsPerSession <= 0 {
		return fmt.Errorf("questions per session must be positive, got %d", s.QuestionsPerSession)
	}
	return nil
}

// WordInterval is the reveal pace: one word every 60000/wpm milliseconds.
func (s Settings) WordInterval() time.Duration {
	return time.Minute / time.Duration(s.WordsPerMinute)
}
