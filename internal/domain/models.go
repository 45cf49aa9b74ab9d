package domain

import "time"

// Question is an immutable question-bank record. The correct answer is never
// one of the distractors, and a four-way multiple choice carries exactly
// three distractors.
type Question struct {
	ID            string   `json:"id"`
	SubjectArea   string   `json:"subjectArea"` // SS, SC, LA, MA, AH
	Text          string   `json:"text"`
	CorrectAnswer string   `json:"correctAnswer"`
	Distractors   []string `json:"distractors"`
	Level         string   `json:"level"` // MS or HS
	IsPublic      bool     `json:"isPublic"`
	CreatedBy     string   `json:"createdBy"`
	TeamID        string   `json:"teamId,omitempty"`
	ImportYear    int      `json:"importYear,omitempty"`
}

// QuestionFilter narrows a question-bank fetch.
type QuestionFilter struct {
	IsPublic    *bool
	TeamID      string
	CreatedBy   string
	SubjectArea string
	MinYear     int
	MaxYear     int
}

// Matches reports whether a question satisfies every set field of the filter.
// Zero-valued fields match everything.
func (f QuestionFilter) Matches(q Question) bool {
	if f.IsPublic != nil && q.IsPublic != *f.IsPublic {
		return false
	}
	if f.TeamID != "" && q.TeamID != f.TeamID {
		return false
	}
	if f.CreatedBy != "" && q.CreatedBy != f.CreatedBy {
		return false
	}
	if f.SubjectArea != "" && q.SubjectArea != f.SubjectArea {
		return false
	}
	if f.MinYear != 0 && q.ImportYear < f.MinYear {
		return false
	}
	if f.MaxYear != 0 && q.ImportYear > f.MaxYear {
		return false
	}
	return true
}

// Outcome is the terminal result of one question.
type Outcome string

const (
	OutcomePending           Outcome = "pending"
	OutcomeCorrect           Outcome = "correct"
	OutcomeIncorrect         Outcome = "incorrect"
	OutcomeTimedOut          Outcome = "timedOut"
	OutcomeHesitationExpired Outcome = "hesitationExpired"
)

// Scored reports whether the outcome counts as an answered-correctly question.
func (o Outcome) Scored() bool { return o == OutcomeCorrect }

// SessionSummary accumulates across one run of questions and is committed
// exactly once when the run ends.
type SessionSummary struct {
	PlayerID         string             `json:"playerId"`
	TeamID           string             `json:"teamId,omitempty"`
	GameType         string             `json:"type"` // practice or match
	Score            int                `json:"score"`
	TotalAttempted   int                `json:"total"`
	BuzzTimes        []float64          `json:"buzzTimes"` // seconds, two-decimal precision
	AvgBuzzTime      float64            `json:"avgBuzzTime"`
	CorrectBySubject map[string]int     `json:"correctBySubject"`
	TotalBySubject   map[string]int     `json:"totalBySubject"`
	HesitationCount  int                `json:"hesitationCount"`
	QuestionIDs      []string           `json:"questionIds"`
	StartedAt        time.Time          `json:"startedAt"`
	CompletedAt      time.Time          `json:"completedAt"`
}

// PlayerAggregate is the rolling lifetime view of a player.
type PlayerAggregate struct {
	PlayerID         string         `json:"playerId"`
	GamesPlayed      int            `json:"gamesPlayed"`
	TotalScore       int            `json:"totalScore"`
	TotalQuestions   int            `json:"totalQuestions"`
	AvgBuzzTime      float64        `json:"avgBuzzTime"`
	CorrectBySubject map[string]int `json:"correctBySubject"`
}

// Fold merges one finished session into the aggregate. The buzz-time average
// is a per-game weighted average; a session with no buzzes leaves it untouched.
func (a PlayerAggregate) Fold(summary SessionSummary) PlayerAggregate {
	next := PlayerAggregate{
		PlayerID:         a.PlayerID,
		GamesPlayed:      a.GamesPlayed + 1,
		TotalScore:       a.TotalScore + summary.Score,
		TotalQuestions:   a.TotalQuestions + summary.TotalAttempted,
		AvgBuzzTime:      a.AvgBuzzTime,
		CorrectBySubject: make(map[string]int, len(a.CorrectBySubject)+len(summary.CorrectBySubject)),
	}
	if next.PlayerID == "" {
		next.PlayerID = summary.PlayerID
	}
	for subject, count := range a.CorrectBySubject {
		next.CorrectBySubject[subject] = count
	}
	for subject, count := range summary.CorrectBySubject {
		next.CorrectBySubject[subject] += count
	}
	if len(summary.BuzzTimes) > 0 {
		next.AvgBuzzTime = round2((a.AvgBuzzTime*float64(a.GamesPlayed) + summary.AvgBuzzTime) / float64(next.GamesPlayed))
	}
	return next
}

// MatchStatus is the forward-only lifecycle of a match record.
type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

// MatchRecord is the shared coach-owned record for a multi-player match.
// PlayerIDs is append-only while waiting and frozen once active.
type MatchRecord struct {
	ID          string      `json:"id"`
	CoachID     string      `json:"coachId"`
	TeamID      string      `json:"teamId,omitempty"`
	Status      MatchStatus `json:"status"`
	QuestionIDs []string    `json:"questionIds"`
	PlayerIDs   []string    `json:"playerIds"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// HasPlayer reports whether the player already sits on the roster.
func (m MatchRecord) HasPlayer(playerID string) bool {
	for _, id := range m.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// BuzzAttempt is a transient arbitration input, discarded once a winner is decided.
type BuzzAttempt struct {
	PlayerID        string
	QuestionID      string
	ClientElapsedMs int64
	ServerReceived  time.Time
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
