package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// QuestionLoader loads the question bank from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query := `SELECT id, subject_area, text, correct_answer, distractors, level, is_public, created_by, team_id, import_year FROM questions`
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.IsPublic != nil {
		conds = append(conds, "is_public = "+arg(*filter.IsPublic))
	}
	if filter.TeamID != "" {
		conds = append(conds, "team_id = "+arg(filter.TeamID))
	}
	if filter.CreatedBy != "" {
		conds = append(conds, "created_by = "+arg(filter.CreatedBy))
	}
	if filter.SubjectArea != "" {
		conds = append(conds, "subject_area = "+arg(filter.SubjectArea))
	}
	if filter.MinYear != 0 {
		conds = append(conds, "import_year >= "+arg(filter.MinYear))
	}
	if filter.MaxYear != 0 {
		conds = append(conds, "import_year <= "+arg(filter.MaxYear))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.SubjectArea, &q.Text, &q.CorrectAnswer, &q.Distractors, &q.Level, &q.IsPublic, &q.CreatedBy, &q.TeamID, &q.ImportYear); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
