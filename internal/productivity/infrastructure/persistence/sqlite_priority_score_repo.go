package persistence

import (
	"context"
	"database/sql"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	sharedPersistence "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLitePriorityScoreRepository stores priority scores in SQLite.
type SQLitePriorityScoreRepository struct {
	dbConn *sql.DB
}

// NewSQLitePriorityScoreRepository creates a new repository.
func NewSQLitePriorityScoreRepository(dbConn *sql.DB) *SQLitePriorityScoreRepository {
	return &SQLitePriorityScoreRepository{dbConn: dbConn}
}

func (r *SQLitePriorityScoreRepository) getQuerier(ctx context.Context) querier {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.dbConn
}

// Save upserts a priority score.
func (r *SQLitePriorityScoreRepository) Save(ctx context.Context, score task.PriorityScore) error {
	q := r.getQuerier(ctx)
	result, err := q.ExecContext(ctx, `
		UPDATE priority_scores SET score = ?, explanation = ?, updated_at = ?
		WHERE user_id = ? AND task_id = ?
	`, score.Score, score.Explanation, score.UpdatedAt, score.UserID.String(), score.TaskID.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO priority_scores (id, user_id, task_id, score, explanation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, score.ID.String(), score.UserID.String(), score.TaskID.String(), score.Score, score.Explanation, score.UpdatedAt)
	return err
}

// ListByUser returns all scores for a user.
func (r *SQLitePriorityScoreRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]task.PriorityScore, error) {
	q := r.getQuerier(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, task_id, score, explanation, updated_at
		FROM priority_scores WHERE user_id = ?
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []task.PriorityScore
	for rows.Next() {
		var idStr, userIDStr, taskIDStr string
		var score task.PriorityScore
		if err := rows.Scan(&idStr, &userIDStr, &taskIDStr, &score.Score, &score.Explanation, &score.UpdatedAt); err != nil {
			return nil, err
		}
		score.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		score.UserID, err = uuid.Parse(userIDStr)
		if err != nil {
			return nil, err
		}
		score.TaskID, err = uuid.Parse(taskIDStr)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// DeleteByUser removes stored scores for a user.
func (r *SQLitePriorityScoreRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	q := r.getQuerier(ctx)
	_, err := q.ExecContext(ctx, `DELETE FROM priority_scores WHERE user_id = ?`, userID.String())
	return err
}
