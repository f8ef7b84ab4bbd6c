package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/thoughtcode/tca-backend/internal/model"
)

// ErrNotFound is returned when a question row does not exist.
var ErrNotFound = errors.New("question not found")

const questionColumns = `qid, title, description_url, description, is_asked, coding_round, where_asked, last_updated_dttm`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a new question stamped with the database clock and fills in
// the generated id and timestamp.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question (title, description_url, description, is_asked, coding_round, where_asked, last_updated_dttm)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING qid, last_updated_dttm`,
		q.Title, q.DescriptionURL, q.Description, q.IsAsked, q.CodingRound, q.WhereAsked,
	).Scan(&q.ID, &q.LastUpdated)
}

// UpdateWhereAsked sets where_asked for one row. The timestamp strictly
// advances even if the database clock has not moved since the last write.
// It reports whether a row was touched.
func (r *QuestionRepository) UpdateWhereAsked(ctx context.Context, id int64, whereAsked *string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question
		 SET where_asked = $1,
		     last_updated_dttm = GREATEST(NOW(), last_updated_dttm + INTERVAL '1 microsecond')
		 WHERE qid = $2`,
		whereAsked, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a question. It reports whether a row was removed.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question WHERE qid = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM question WHERE qid = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// List retrieves all questions ordered by where_asked (byte order, independent
// of the database collation), then id.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM question
		 ORDER BY where_asked COLLATE "C" ASC NULLS LAST, qid ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	if err := row.Scan(
		&q.ID, &q.Title, &q.DescriptionURL, &q.Description,
		&q.IsAsked, &q.CodingRound, &q.WhereAsked, &q.LastUpdated,
	); err != nil {
		return nil, err
	}
	return &q, nil
}
